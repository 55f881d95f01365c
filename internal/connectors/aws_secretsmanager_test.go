package connectors_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/pkg/connector"
)

// mockSecretsManagerClient implements connectors.SecretsManagerAPI.
type mockSecretsManagerClient struct {
	getSecretValue func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	listSecrets    func(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

func (m *mockSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return m.getSecretValue(ctx, params, optFns...)
}

func (m *mockSecretsManagerClient) ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	if m.listSecrets != nil {
		return m.listSecrets(ctx, params, optFns...)
	}
	return &secretsmanager.ListSecretsOutput{}, nil
}

func jsonSecretClient(t *testing.T, wantSecretID, payload string) *mockSecretsManagerClient {
	t.Helper()
	return &mockSecretsManagerClient{
		getSecretValue: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			if aws.ToString(params.SecretId) != wantSecretID {
				return nil, &smtypes.ResourceNotFoundException{}
			}
			return &secretsmanager.GetSecretValueOutput{
				SecretString: aws.String(payload),
			}, nil
		},
	}
}

func TestSecretsManagerConnectorFetchJSONField(t *testing.T) {
	t.Parallel()

	client := jsonSecretClient(t, "prod/db_credentials", `{"username":"svc","password":"hunter2","port":5432}`)
	c, err := connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{
		Region: "eu-west-1",
		Prefix: "prod/",
	}, connectors.WithSecretsManagerClient(client))
	require.NoError(t, err)

	tests := []struct {
		name      string
		fieldName string
		want      string
	}{
		{name: "string_field", fieldName: "password", want: "hunter2"},
		{name: "other_string_field", fieldName: "username", want: "svc"},
		{name: "numeric_field_keeps_json", fieldName: "port", want: "5432"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, err := c.Fetch(context.Background(), "db_credentials", tt.fieldName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(value.Data))
		})
	}
}

func TestSecretsManagerConnectorMissingField(t *testing.T) {
	t.Parallel()

	client := jsonSecretClient(t, "db_credentials", `{"username":"svc"}`)
	c, err := connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{},
		connectors.WithSecretsManagerClient(client))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "db_credentials", "password")
	assert.True(t, connector.IsNotFound(err))
}

func TestSecretsManagerConnectorMissingSecret(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{
		getSecretValue: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return nil, &smtypes.ResourceNotFoundException{}
		},
	}
	c, err := connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{},
		connectors.WithSecretsManagerClient(client))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "ghost", "password")
	assert.True(t, connector.IsNotFound(err))
}

func TestSecretsManagerConnectorUnavailable(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{
		getSecretValue: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return nil, errors.New("AccessDeniedException: not authorized")
		},
	}
	c, err := connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{},
		connectors.WithSecretsManagerClient(client))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "db_credentials", "password")
	assert.True(t, connector.IsUnavailable(err))
}

func TestSecretsManagerConnectorRawPayload(t *testing.T) {
	t.Parallel()

	client := jsonSecretClient(t, "license", "ABCD-1234")
	c, err := connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{},
		connectors.WithSecretsManagerClient(client))
	require.NoError(t, err)

	// Empty field name returns the payload verbatim, no JSON parsing.
	value, err := c.Fetch(context.Background(), "license", "")
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234", string(value.Data))
}

func TestSecretsManagerConnectorBinaryPayload(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{
		getSecretValue: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return &secretsmanager.GetSecretValueOutput{
				SecretBinary: []byte(`{"key":"der-bytes"}`),
			}, nil
		},
	}
	c, err := connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{},
		connectors.WithSecretsManagerClient(client))
	require.NoError(t, err)

	value, err := c.Fetch(context.Background(), "tls", "key")
	require.NoError(t, err)
	assert.Equal(t, "der-bytes", string(value.Data))
}

func TestSecretsManagerConnectorValidate(t *testing.T) {
	t.Parallel()

	healthy := &mockSecretsManagerClient{
		getSecretValue: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return nil, &smtypes.ResourceNotFoundException{}
		},
	}
	c, err := connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{},
		connectors.WithSecretsManagerClient(healthy))
	require.NoError(t, err)
	assert.NoError(t, c.Validate(context.Background()))

	broken := &mockSecretsManagerClient{
		listSecrets: func(ctx context.Context, params *secretsmanager.ListSecretsInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
			return nil, errors.New("UnrecognizedClientException")
		},
	}
	c, err = connectors.NewSecretsManagerConnector("aws", connectors.SecretsManagerConfig{},
		connectors.WithSecretsManagerClient(broken))
	require.NoError(t, err)
	assert.Error(t, c.Validate(context.Background()))
}
