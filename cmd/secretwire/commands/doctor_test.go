package commands

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCommand_AllHealthy(t *testing.T) {
	opts := writeTestConfig(t, testConfig)

	output, err := captureStdout(t, NewDoctorCommand(opts), []string{})
	require.NoError(t, err)

	assert.Contains(t, output, "✓ healthy")
	assert.Contains(t, output, "Summary: 1/1 connectors healthy")
}

func TestDoctorCommand_UnhealthyConnector(t *testing.T) {
	missingRoot := filepath.Join(t.TempDir(), "absent")
	opts := writeTestConfig(t, fmt.Sprintf(`
version: 1
connectors:
  dev:
    type: static
  mounted:
    type: file
    root: %s
secrets: []
units: {}
`, missingRoot))

	output, err := captureStdout(t, NewDoctorCommand(opts), []string{"--verbose"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not healthy")

	assert.Contains(t, output, "✗ error")
	assert.Contains(t, output, "Summary: 1/2 connectors healthy")
	assert.Contains(t, output, "root directory exists")
}

func TestDoctorCommand_BadConfig(t *testing.T) {
	opts := writeTestConfig(t, testConfig)
	opts.Path = opts.Path + ".missing"

	_, err := captureStdout(t, NewDoctorCommand(opts), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
