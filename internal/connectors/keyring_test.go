package connectors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/pkg/connector"
)

func TestKeyringConnectorContract(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("com.example.db_credentials", "password", "hunter2"))

	connector.RunContractTests(t, connector.ContractTest{
		CreateConnector: func(t *testing.T) connector.Connector {
			return connectors.NewKeyringConnector("keyring-test", "com.example.")
		},
		SecretName:    "db_credentials",
		FieldName:     "password",
		WantValue:     "hunter2",
		MissingSecret: "no_such_secret",
	})
}

func TestKeyringConnectorServiceNaming(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("org.acme.api", "token", "tok-1"))

	c := connectors.NewKeyringConnector("keyring", "org.acme.")
	value, err := c.Fetch(context.Background(), "api", "token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", string(value.Data))
	assert.Equal(t, "keyring:org.acme.api/token", value.Source)
}

func TestKeyringConnectorValidate(t *testing.T) {
	keyring.MockInit()

	c := connectors.NewKeyringConnector("keyring", "com.example.")
	assert.NoError(t, c.Validate(context.Background()))
}
