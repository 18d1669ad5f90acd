// Copyright © 2026 Fogtools

// Package artifact persists what a run leaves behind: the archived driver
// output of every cell and the run report.
//
// Sinks address artifacts through run-scoped keys such as
// runs/<run-id>/<branch>/<platform>.log, produced by the model package.
package artifact

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fogtools/fogtest/pkg/errors"
	"github.com/spf13/afero"
)

// ErrUnsupportedURL indicates that no sink implementation serves the given URL
var ErrUnsupportedURL = errors.New("unsupported artifact URL")

// Sink implementations store run artifacts under a key.
//
// Typically this is something file system-like. Examples are S3 and the
// local FS. Implementations of this interface are assumed to be fairly
// simple.
type Sink interface {
	String() string
	Put(ctx context.Context, key string, rdr io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// FromURL selects a sink from a URL: s3://bucket[/prefix] addresses S3,
// anything else names a local directory.
func FromURL(rawURL string, s3opts ...S3Option) (Sink, error) {
	switch {
	case rawURL == "":
		return nil, ErrUnsupportedURL.Wrap(fmt.Errorf("empty URL"))
	case strings.HasPrefix(rawURL, "s3://"):
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(rawURL, "s3://"), "/")
		if bucket == "" {
			return nil, ErrUnsupportedURL.Wrap(fmt.Errorf("missing bucket in %q", rawURL))
		}
		opts := append([]S3Option{Bucket(bucket), Prefix(prefix)}, s3opts...)
		return NewS3(opts[0], opts[1:]...), nil
	default:
		return NewLocal(afero.NewBasePathFs(afero.NewOsFs(), rawURL)), nil
	}
}
