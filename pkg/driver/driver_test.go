package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fogtools/fogtest/pkg/driver/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skipf("shell fixtures unsupported on %s", runtime.GOOS)
	}
	script := filepath.Join(t.TempDir(), "test_instance.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return script
}

func TestExecRun(t *testing.T) {
	script := testScript(t, `echo "testing $1 on $2"`)
	d := NewExec(script, nil)

	var out bytes.Buffer
	res, err := d.Run(context.Background(), Task{
		RunID:    "run1",
		Branch:   "master",
		Platform: "linux",
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.NotZero(t, res.Duration)
	assert.Equal(t, "testing master on linux\n", out.String())
}

func TestExecRunFailure(t *testing.T) {
	script := testScript(t, `echo "boom" >&2; exit 3`)
	d := NewExec(script, nil)

	var out bytes.Buffer
	res, err := d.Run(context.Background(), Task{Branch: "master", Platform: "linux", Output: &out})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "boom\n", out.String())
}

func TestExecFixedArgs(t *testing.T) {
	script := testScript(t, `echo "$1 $2 $3"`)
	d := NewExec(script, []string{"--verbose"})

	var out bytes.Buffer
	_, err := d.Run(context.Background(), Task{Branch: "master", Platform: "linux", Output: &out})
	require.NoError(t, err)
	assert.Equal(t, "--verbose master linux\n", out.String())

	assert.Equal(t, script+" --verbose", d.String())
}

func TestExecEnvironment(t *testing.T) {
	script := testScript(t, `echo "$FOGTEST_RUN_ID/$FOGTEST_BRANCH/$FOGTEST_PLATFORM/$FOGTEST_EXTRA"`)
	d := NewExec(script, nil, Env("FOGTEST_EXTRA=extra"))

	var out bytes.Buffer
	_, err := d.Run(context.Background(), Task{
		RunID:    "run1",
		Branch:   "master",
		Platform: "linux",
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "run1/master/linux/extra\n", out.String())
}

func TestExecSpawnFailure(t *testing.T) {
	d := NewExec(filepath.Join(t.TempDir(), "no-such-driver"), nil)

	_, err := d.Run(context.Background(), Task{Branch: "master", Platform: "linux"})
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrSpawn)
}

func TestExecTimeout(t *testing.T) {
	script := testScript(t, `sleep 5`)
	d := NewExec(script, nil, Timeout(100*time.Millisecond))

	t0 := time.Now()
	_, err := d.Run(context.Background(), Task{Branch: "master", Platform: "linux"})
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrTimedOut)
	require.Less(t, time.Since(t0), 3*time.Second)
}

func TestExecCancelled(t *testing.T) {
	script := testScript(t, `sleep 5`)
	d := NewExec(script, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := d.Run(ctx, Task{Branch: "master", Platform: "linux"})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
