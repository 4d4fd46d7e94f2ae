// Package source opens the byte stream an ingest reads from. Local paths,
// s3://bucket/key and gs://bucket/object locations are supported, and
// compressed inputs are unwrapped based on their extension.
package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ajitpratap0/colingest/pkg/compression"
	"github.com/ajitpratap0/colingest/pkg/errors"
)

const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeStdin = "stdin"
)

// Location is a parsed source or destination address.
type Location struct {
	Scheme string
	Bucket string
	// Path is the file path for SchemeFile and the object key otherwise.
	Path string
}

func (l Location) String() string {
	switch l.Scheme {
	case SchemeS3, SchemeGCS:
		return l.Scheme + "://" + l.Bucket + "/" + l.Path
	case SchemeStdin:
		return "-"
	default:
		return l.Path
	}
}

// ParseLocation splits raw into scheme, bucket and path. "-" means stdin,
// anything without a recognised scheme is a local path.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, errors.New(errors.ErrorTypeConfig, "empty source location")
	}
	if raw == "-" {
		return Location{Scheme: SchemeStdin}, nil
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{Scheme: SchemeFile, Path: raw}, nil
	}
	switch scheme {
	case "file":
		return Location{Scheme: SchemeFile, Path: rest}, nil
	case SchemeS3, SchemeGCS:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return Location{}, errors.Newf(errors.ErrorTypeConfig, "location %q needs both bucket and object key", raw)
		}
		return Location{Scheme: scheme, Bucket: bucket, Path: key}, nil
	default:
		return Location{}, errors.Newf(errors.ErrorTypeConfig, "unsupported location scheme %q", scheme)
	}
}

// Opener yields a fresh stream over the same input on every call, so one
// Opener can back repeated ingests.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// Options configures New.
type Options struct {
	// Compression overrides extension based detection when set.
	Compression compression.Algorithm
	S3          S3Options
	GCS         GCSOptions
}

// New returns the Opener for location.
func New(location string, opts Options) (Opener, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	algo := opts.Compression
	if algo == "" {
		algo = compression.Detect(loc.Path)
	}
	switch loc.Scheme {
	case SchemeStdin:
		return &ReaderOpener{Name: "stdin", R: os.Stdin, Compression: algo}, nil
	case SchemeS3:
		return &S3Opener{Bucket: loc.Bucket, Key: loc.Path, Options: opts.S3, Compression: algo}, nil
	case SchemeGCS:
		return &GCSOpener{Bucket: loc.Bucket, Object: loc.Path, Options: opts.GCS, Compression: algo}, nil
	default:
		return &FileOpener{Path: loc.Path, Compression: algo}, nil
	}
}

// FileOpener opens a local file.
type FileOpener struct {
	Path        string
	Compression compression.Algorithm
}

func (o *FileOpener) String() string { return o.Path }

func (o *FileOpener) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(o.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSource, "open source file").
			WithDetail("path", o.Path)
	}
	return decompress(o.Compression, f)
}

// ReaderOpener serves an already open reader. It can only be opened once
// unless R is an io.Seeker, in which case every Open rewinds it.
type ReaderOpener struct {
	Name        string
	R           io.Reader
	Compression compression.Algorithm

	opened bool
}

func (o *ReaderOpener) String() string { return o.Name }

func (o *ReaderOpener) Open(_ context.Context) (io.ReadCloser, error) {
	if o.opened {
		s, ok := o.R.(io.Seeker)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeSource, "source %q cannot be reopened", o.Name)
		}
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeSource, "rewind source")
		}
	}
	o.opened = true
	return decompress(o.Compression, io.NopCloser(o.R))
}

// decompress layers the codec for algo over rc. Closing the result closes
// both.
func decompress(algo compression.Algorithm, rc io.ReadCloser) (io.ReadCloser, error) {
	if algo == "" || algo == compression.None {
		return rc, nil
	}
	zr, err := compression.NewReader(algo, rc)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return &stackedReadCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
}

type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
