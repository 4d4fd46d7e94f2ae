package source

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ajitpratap0/colingest/pkg/compression"
	"github.com/ajitpratap0/colingest/pkg/errors"
)

// S3Options configures the S3 client. Credentials come from the default
// AWS chain.
type S3Options struct {
	Region string `mapstructure:"region" yaml:"region" json:"region"`
	// Endpoint targets S3 compatible stores such as MinIO.
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style" json:"use_path_style"`
}

// NewS3Client builds a client from the default AWS configuration.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "load aws configuration")
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	}), nil
}

// S3Opener streams an object from S3.
type S3Opener struct {
	Bucket      string
	Key         string
	Options     S3Options
	Compression compression.Algorithm

	// Client is created on first Open when nil.
	Client *s3.Client
}

func (o *S3Opener) String() string { return "s3://" + o.Bucket + "/" + o.Key }

func (o *S3Opener) Open(ctx context.Context) (io.ReadCloser, error) {
	if o.Client == nil {
		client, err := NewS3Client(ctx, o.Options)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeSource, "create s3 client")
		}
		o.Client = client
	}

	out, err := o.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(o.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errors.Wrap(err, errors.ErrorTypeSource, "object not found").
				WithDetail("location", o.String())
		}
		return nil, errors.Wrap(err, errors.ErrorTypeSource, "get s3 object").
			WithDetail("location", o.String())
	}
	return decompress(o.Compression, out.Body)
}
