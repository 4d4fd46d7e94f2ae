// Package object creates export destinations: local files, stdout, S3
// objects and Cloud Storage objects, addressed the same way as sources.
package object

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/source"
)

// Options configures the remote clients.
type Options struct {
	S3  source.S3Options
	GCS source.GCSOptions
	// Stdout receives output for the "-" location. Defaults to os.Stdout.
	Stdout io.Writer
}

// Create opens location for writing. Data is only guaranteed to be stored
// once Close returns nil.
func Create(ctx context.Context, location string, opts Options) (io.WriteCloser, error) {
	loc, err := source.ParseLocation(location)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case source.SchemeStdin:
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		return nopCloser{w}, nil
	case source.SchemeS3:
		client, err := source.NewS3Client(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		return newS3Writer(client, loc.Bucket, loc.Path), nil
	case source.SchemeGCS:
		return newGCSWriter(ctx, opts.GCS, loc.Bucket, loc.Path)
	default:
		if dir := filepath.Dir(loc.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeSink, "create output directory").
					WithDetail("path", dir)
			}
		}
		f, err := os.Create(loc.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeSink, "create output file").
				WithDetail("path", loc.Path)
		}
		return f, nil
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// s3Writer streams into a multipart upload running in the background.
type s3Writer struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func newS3Writer(client manager.UploadAPIClient, bucket, key string) *s3Writer {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan error, 1)}
	uploader := manager.NewUploader(client)

	go func() {
		_, err := uploader.Upload(context.Background(), &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		// unblocks the writer when the upload fails early
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

func (w *s3Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := w.pw.Close(); err != nil {
		return err
	}
	if err := <-w.done; err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "upload object")
	}
	return nil
}
