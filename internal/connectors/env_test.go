package connectors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/pkg/connector"
)

func TestEnvConnectorContract(t *testing.T) {
	t.Setenv("SWTEST_DB_CREDENTIALS_PASSWORD", "hunter2")

	connector.RunContractTests(t, connector.ContractTest{
		CreateConnector: func(t *testing.T) connector.Connector {
			return connectors.NewEnvConnector("env-test", "SWTEST_")
		},
		SecretName:    "db_credentials",
		FieldName:     "password",
		WantValue:     "hunter2",
		MissingSecret: "no_such_secret",
	})
}

func TestEnvConnectorNaming(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		secretName string
		fieldName  string
		envVar     string
	}{
		{
			name:       "prefix_and_field",
			prefix:     "APP_",
			secretName: "api_credentials",
			fieldName:  "username",
			envVar:     "APP_API_CREDENTIALS_USERNAME",
		},
		{
			name:       "no_prefix",
			prefix:     "",
			secretName: "token",
			fieldName:  "value",
			envVar:     "TOKEN_VALUE",
		},
		{
			name:       "no_field",
			prefix:     "APP_",
			secretName: "license",
			fieldName:  "",
			envVar:     "APP_LICENSE",
		},
		{
			name:       "mixed_case_folds_upper",
			prefix:     "",
			secretName: "ApiKey",
			fieldName:  "Token",
			envVar:     "APIKEY_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, "expected-value")

			c := connectors.NewEnvConnector("env", tt.prefix)
			value, err := c.Fetch(context.Background(), tt.secretName, tt.fieldName)
			require.NoError(t, err)
			assert.Equal(t, "expected-value", string(value.Data))
			assert.Equal(t, "env:"+tt.envVar, value.Source)
		})
	}
}

func TestEnvConnectorNotFound(t *testing.T) {
	t.Parallel()

	c := connectors.NewEnvConnector("env", "SECRETWIRE_ABSENT_")
	_, err := c.Fetch(context.Background(), "ghost", "value")
	assert.True(t, connector.IsNotFound(err))
}
