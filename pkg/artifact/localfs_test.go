package artifact

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutGet(t *testing.T) {
	sink := NewLocal(afero.NewMemMapFs())

	key := "runs/run1/master/linux.log"
	err := sink.Put(context.Background(), key, strings.NewReader("testing master on linux"))
	require.NoError(t, err)

	rdr, err := sink.Get(context.Background(), key)
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "testing master on linux", string(b))
}

func TestLocalPutOverwrites(t *testing.T) {
	sink := NewLocal(afero.NewMemMapFs())

	require.NoError(t, sink.Put(context.Background(), "runs/run1/report.yaml", strings.NewReader("first, longer content")))
	require.NoError(t, sink.Put(context.Background(), "runs/run1/report.yaml", strings.NewReader("second")))

	rdr, err := sink.Get(context.Background(), "runs/run1/report.yaml")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
}

func TestLocalGetMissing(t *testing.T) {
	sink := NewLocal(afero.NewMemMapFs())

	_, err := sink.Get(context.Background(), "runs/nothing/here.log")
	require.Error(t, err)
}

func TestLocalString(t *testing.T) {
	assert.Equal(t, "localfs", NewLocal(afero.NewMemMapFs()).String())

	based := NewLocal(afero.NewBasePathFs(afero.NewOsFs(), t.TempDir()))
	assert.Contains(t, based.String(), "localfs@")
}

func TestLocalLargeArtifact(t *testing.T) {
	sink := NewLocal(afero.NewMemMapFs())

	payload := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
	require.NoError(t, sink.Put(context.Background(), "runs/run1/big.log", bytes.NewReader(payload)))

	rdr, err := sink.Get(context.Background(), "runs/run1/big.log")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	assert.Len(t, b, len(payload))
}
