package connectors_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/pkg/connector"
)

func writeSecretFile(t *testing.T, root, secretName, fieldName, value string) {
	t.Helper()
	dir := filepath.Join(root, secretName)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, fieldName), []byte(value), 0o600))
}

func TestFileConnectorContract(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSecretFile(t, root, "db_credentials", "password", "hunter2")

	connector.RunContractTests(t, connector.ContractTest{
		CreateConnector: func(t *testing.T) connector.Connector {
			c, err := connectors.NewFileConnector("file-test", root)
			require.NoError(t, err)
			return c
		},
		SecretName:    "db_credentials",
		FieldName:     "password",
		WantValue:     "hunter2",
		MissingSecret: "no_such_secret",
	})
}

func TestFileConnectorTrimsTrailingNewline(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSecretFile(t, root, "api", "token", "tok-123\n")

	c, err := connectors.NewFileConnector("file", root)
	require.NoError(t, err)

	value, err := c.Fetch(context.Background(), "api", "token")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", string(value.Data))
}

func TestFileConnectorRejectsPathEscape(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c, err := connectors.NewFileConnector("file", root)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "..", "passwd")
	assert.True(t, connector.IsUnavailable(err))
}

func TestFileConnectorValidate(t *testing.T) {
	t.Parallel()

	c, err := connectors.NewFileConnector("file", t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, c.Validate(context.Background()))

	missing, err := connectors.NewFileConnector("file", filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Error(t, missing.Validate(context.Background()))
}

func TestFileConnectorRequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := connectors.NewFileConnector("file", "")
	assert.Error(t, err)
}
