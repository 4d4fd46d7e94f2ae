package object

import (
	"context"

	"cloud.google.com/go/storage"

	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/source"
)

type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func newGCSWriter(ctx context.Context, opts source.GCSOptions, bucket, object string) (*gcsWriter, error) {
	client, err := source.NewGCSClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	return &gcsWriter{Writer: w, client: client}, nil
}

func (w *gcsWriter) Close() error {
	err := w.Writer.Close()
	_ = w.client.Close()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "write object")
	}
	return nil
}
