package source

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/colingest/pkg/compression"
	"github.com/ajitpratap0/colingest/pkg/errors"
)

// GCSOptions configures the Cloud Storage client.
type GCSOptions struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file" json:"credentials_file"`
	// Endpoint targets an emulator such as fake-gcs-server.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
}

// NewGCSClient builds a Cloud Storage client.
func NewGCSClient(ctx context.Context, opts GCSOptions) (*storage.Client, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "create gcs client")
	}
	return client, nil
}

// GCSOpener streams an object from Cloud Storage. Each Open creates its own
// client, which is closed together with the returned reader.
type GCSOpener struct {
	Bucket      string
	Object      string
	Options     GCSOptions
	Compression compression.Algorithm
}

func (o *GCSOpener) String() string { return "gs://" + o.Bucket + "/" + o.Object }

func (o *GCSOpener) Open(ctx context.Context) (io.ReadCloser, error) {
	client, err := NewGCSClient(ctx, o.Options)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSource, "open gcs source")
	}
	r, err := client.Bucket(o.Bucket).Object(o.Object).NewReader(ctx)
	if err != nil {
		_ = client.Close()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errors.Wrap(err, errors.ErrorTypeSource, "object not found").
				WithDetail("location", o.String())
		}
		return nil, errors.Wrap(err, errors.ErrorTypeSource, "read gcs object").
			WithDetail("location", o.String())
	}
	return decompress(o.Compression, &stackedReadCloser{Reader: r, closers: []io.Closer{r, client}})
}
