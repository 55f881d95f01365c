package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCommand_TableOutput(t *testing.T) {
	opts := writeTestConfig(t, testConfig)

	output, err := captureStdout(t, NewPlanCommand(opts), []string{})
	require.NoError(t, err)

	assert.Contains(t, output, "API_USER")
	assert.Contains(t, output, "API_PASS")
	assert.Contains(t, output, "dev")
	assert.Contains(t, output, "✓ OK")
	assert.Contains(t, output, "Total requests: 3")
	assert.Contains(t, output, "All requests ready to resolve!")

	// Planning never fetches, so no value may appear.
	assert.NotContains(t, output, "hunter2")
	assert.NotContains(t, output, "svc-api")
}

func TestPlanCommand_JSONOutput(t *testing.T) {
	opts := writeTestConfig(t, testConfig)

	output, err := captureStdout(t, NewPlanCommand(opts), []string{"--json"})
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))

	assert.Contains(t, result, "requests")
	assert.Contains(t, result, "summary")

	summary := result["summary"].(map[string]interface{})
	assert.Equal(t, float64(3), summary["total_requests"])
	assert.Equal(t, float64(0), summary["error_count"])
}

func TestPlanCommand_UnknownField(t *testing.T) {
	opts := writeTestConfig(t, `
version: 1
connectors:
  dev:
    type: static
secrets:
  - name: API_CREDENTIALS
    shape: basic-auth
units:
  api:
    - secret: API_CREDENTIALS
      field: certificate
      env: API_CERT
`)

	output, err := captureStdout(t, NewPlanCommand(opts), []string{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "plan completed with 1 errors")
	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "no field 'certificate'")
}

func TestPlanCommand_UndeclaredSecret(t *testing.T) {
	opts := writeTestConfig(t, `
version: 1
connectors:
  dev:
    type: static
secrets: []
units:
  api:
    - secret: MYSTERY
      field: username
      env: USER
`)

	output, err := captureStdout(t, NewPlanCommand(opts), []string{})
	assert.Error(t, err)
	assert.Contains(t, output, "secret is not declared")
}

func TestPlanCommand_MissingConfig(t *testing.T) {
	opts := writeTestConfig(t, testConfig)
	opts.Path = opts.Path + ".missing"

	_, err := captureStdout(t, NewPlanCommand(opts), []string{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
