package transport

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCurl(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script binary")
	}
	path := filepath.Join(t.TempDir(), "curl")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCurlDeliver(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "body")
	args := filepath.Join(dir, "args")
	t.Setenv("DINGO_CURL_OUT", out)
	t.Setenv("DINGO_CURL_ARGS", args)
	bin := fakeCurl(t, `cat > "$DINGO_CURL_OUT"
echo "$@" > "$DINGO_CURL_ARGS"
`)

	c, err := NewCurl(CurlConfig{Binary: bin, URL: "collector.local", APIKey: "k", TimeoutSeconds: 3})
	require.NoError(t, err)
	assert.Equal(t, "curl", c.Name())
	require.NoError(t, c.Deliver(context.Background(), samplePayload()))

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":{"value":1.5},"timestamp":1710325800000}`, string(body))

	gotArgs, err := os.ReadFile(args)
	require.NoError(t, err)
	line := strings.TrimSpace(string(gotArgs))
	assert.Contains(t, line, "--data-binary @-")
	assert.Contains(t, line, "--max-time 3")
	assert.True(t, strings.HasSuffix(line, "http://collector.local/v0/ingest/?api_key=k"))
}

func TestCurlFailure(t *testing.T) {
	bin := fakeCurl(t, `cat > /dev/null
echo "could not resolve host" >&2
exit 6
`)
	c, err := NewCurl(CurlConfig{Binary: bin})
	require.NoError(t, err)
	err = c.Deliver(context.Background(), samplePayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not resolve host")
}

func TestCurlMissingBinary(t *testing.T) {
	_, err := NewCurl(CurlConfig{Binary: filepath.Join(t.TempDir(), "nope")})
	require.ErrorIs(t, err, ErrBinaryNotFound)
}
