// Copyright © 2026 Fogtools

package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// NewLocal creates a sink backed by a local file system
func NewLocal(fs afero.Fs) Sink {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".fogtest", "artifacts"))
	}
	return &localSink{
		fs: fs,
	}
}

type localSink struct {
	fs afero.Fs
}

func (l *localSink) Put(_ context.Context, key string, rdr io.Reader) error {
	if dir := filepath.Dir(key); dir != "" && dir != "." {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %v", key, err)
		}
	}
	target, err := l.fs.OpenFile(key, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err = io.Copy(target, rdr); err != nil {
		_ = target.Close()
		return err
	}
	return target.Close()
}

func (l *localSink) Get(_ context.Context, key string) (io.ReadCloser, error) {
	return l.fs.Open(key)
}

func (l *localSink) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}
