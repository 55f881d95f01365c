package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/systmms/secretwire/internal/logging"
)

const testConfig = `
version: 1
connectors:
  dev:
    type: static
    values:
      API_CREDENTIALS/username: svc-api
      API_CREDENTIALS/password: hunter2
secrets:
  - name: API_CREDENTIALS
    shape: basic-auth
units:
  api:
    - secret: API_CREDENTIALS
      field: username
      env: API_USER
    - secret: API_CREDENTIALS
      field: password
      env: API_PASS
  worker:
    - secret: API_CREDENTIALS
      field: password
      env: API_PASS
`

// writeTestConfig writes a config file into a temp dir and returns Options
// pointing at it with a quiet logger.
func writeTestConfig(t *testing.T, content string) *Options {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secretwire.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &Options{
		Path:   path,
		Logger: logging.NewWithWriter(false, true, io.Discard),
	}
}

// captureStdout executes a command and returns what it printed to stdout
// along with the execution error.
func captureStdout(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	cmd.SetArgs(args)
	execErr := cmd.Execute()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	return buf.String(), execErr
}
