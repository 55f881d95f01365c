package connectors_test

import (
	"context"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/pkg/connector"
)

// mockAzureClient implements connectors.AzureKeyVaultAPI over a name map.
type mockAzureClient struct {
	secrets  map[string]string
	lastName string
	err      error
}

func (m *mockAzureClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	m.lastName = name
	if m.err != nil {
		return azsecrets.GetSecretResponse{}, m.err
	}
	value, ok := m.secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: 404, ErrorCode: "SecretNotFound"}
	}
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{Value: to.Ptr(value)},
	}, nil
}

const testVaultURL = "https://test-vault.vault.azure.net/"

func TestAzureConnectorFetch(t *testing.T) {
	t.Parallel()

	client := &mockAzureClient{secrets: map[string]string{
		"prod-db-credentials-password": "hunter2",
	}}
	c, err := connectors.NewAzureKeyVaultConnector("azure", connectors.AzureKeyVaultConfig{
		VaultURL: testVaultURL,
		Prefix:   "prod-",
	}, connectors.WithAzureClient(client))
	require.NoError(t, err)

	value, err := c.Fetch(context.Background(), "db_credentials", "password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(value.Data))
	assert.Equal(t, "azure-kv:https://test-vault.vault.azure.net/prod-db-credentials-password", value.Source)
}

func TestAzureConnectorNameMangling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		secretName string
		fieldName  string
		wantName   string
	}{
		{name: "underscores_to_dashes", secretName: "db_credentials", fieldName: "password", wantName: "db-credentials-password"},
		{name: "upper_folds_lower", secretName: "API_CREDENTIALS", fieldName: "username", wantName: "api-credentials-username"},
		{name: "no_field", secretName: "license", fieldName: "", wantName: "license"},
		{name: "dots_to_dashes", secretName: "svc.account", fieldName: "key", wantName: "svc-account-key"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &mockAzureClient{secrets: map[string]string{tt.wantName: "v"}}
			c, err := connectors.NewAzureKeyVaultConnector("azure", connectors.AzureKeyVaultConfig{
				VaultURL: testVaultURL,
			}, connectors.WithAzureClient(client))
			require.NoError(t, err)

			_, err = c.Fetch(context.Background(), tt.secretName, tt.fieldName)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, client.lastName)
		})
	}
}

func TestAzureConnectorNotFound(t *testing.T) {
	t.Parallel()

	c, err := connectors.NewAzureKeyVaultConnector("azure", connectors.AzureKeyVaultConfig{
		VaultURL: testVaultURL,
	}, connectors.WithAzureClient(&mockAzureClient{}))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "ghost", "password")
	assert.True(t, connector.IsNotFound(err))

	// A clean 404 on the probe still means the vault answered.
	assert.NoError(t, c.Validate(context.Background()))
}

func TestAzureConnectorUnavailable(t *testing.T) {
	t.Parallel()

	client := &mockAzureClient{err: &azcore.ResponseError{StatusCode: 403, ErrorCode: "Forbidden"}}
	c, err := connectors.NewAzureKeyVaultConnector("azure", connectors.AzureKeyVaultConfig{
		VaultURL: testVaultURL,
	}, connectors.WithAzureClient(client))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "db", "password")
	assert.True(t, connector.IsUnavailable(err))
	assert.Error(t, c.Validate(context.Background()))
}

func TestAzureConnectorRequiresVaultURL(t *testing.T) {
	t.Parallel()

	_, err := connectors.NewAzureKeyVaultConnector("azure", connectors.AzureKeyVaultConfig{},
		connectors.WithAzureClient(&mockAzureClient{}))
	assert.Error(t, err)
}
