package connectors_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/pkg/connector"
)

// mockSSMClient implements connectors.SSMAPI over a parameter map.
type mockSSMClient struct {
	parameters map[string]string
	lastInput  *ssm.GetParameterInput
	err        error
}

func (m *mockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	m.lastInput = params
	if m.err != nil {
		return nil, m.err
	}
	value, ok := m.parameters[aws.ToString(params.Name)]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String(value)},
	}, nil
}

func TestSSMConnectorFetch(t *testing.T) {
	t.Parallel()

	client := &mockSSMClient{parameters: map[string]string{
		"/myapp/db_credentials/password": "hunter2",
	}}
	c, err := connectors.NewSSMConnector("ssm", connectors.SSMConfig{
		PathPrefix: "/myapp",
	}, connectors.WithSSMClient(client))
	require.NoError(t, err)

	value, err := c.Fetch(context.Background(), "db_credentials", "password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(value.Data))
	assert.True(t, aws.ToBool(client.lastInput.WithDecryption), "SecureString decryption is on by default")
}

func TestSSMConnectorParameterNaming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pathPrefix string
		secretName string
		fieldName  string
		wantParam  string
	}{
		{name: "prefixed", pathPrefix: "/myapp", secretName: "db", fieldName: "password", wantParam: "/myapp/db/password"},
		{name: "trailing_slash_prefix", pathPrefix: "/myapp/", secretName: "db", fieldName: "password", wantParam: "/myapp/db/password"},
		{name: "no_prefix", pathPrefix: "", secretName: "db", fieldName: "password", wantParam: "/db/password"},
		{name: "no_field", pathPrefix: "/myapp", secretName: "license", fieldName: "", wantParam: "/myapp/license"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &mockSSMClient{parameters: map[string]string{tt.wantParam: "v"}}
			c, err := connectors.NewSSMConnector("ssm", connectors.SSMConfig{
				PathPrefix: tt.pathPrefix,
			}, connectors.WithSSMClient(client))
			require.NoError(t, err)

			_, err = c.Fetch(context.Background(), tt.secretName, tt.fieldName)
			require.NoError(t, err)
			assert.Equal(t, tt.wantParam, aws.ToString(client.lastInput.Name))
		})
	}
}

func TestSSMConnectorNotFound(t *testing.T) {
	t.Parallel()

	c, err := connectors.NewSSMConnector("ssm", connectors.SSMConfig{},
		connectors.WithSSMClient(&mockSSMClient{}))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "ghost", "password")
	assert.True(t, connector.IsNotFound(err))
}

func TestSSMConnectorUnavailable(t *testing.T) {
	t.Parallel()

	c, err := connectors.NewSSMConnector("ssm", connectors.SSMConfig{},
		connectors.WithSSMClient(&mockSSMClient{err: errors.New("throttled")}))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "db", "password")
	assert.True(t, connector.IsUnavailable(err))
}

func TestSSMConnectorValidate(t *testing.T) {
	t.Parallel()

	// A clean ParameterNotFound on the probe means credentials work.
	c, err := connectors.NewSSMConnector("ssm", connectors.SSMConfig{},
		connectors.WithSSMClient(&mockSSMClient{}))
	require.NoError(t, err)
	assert.NoError(t, c.Validate(context.Background()))

	c, err = connectors.NewSSMConnector("ssm", connectors.SSMConfig{},
		connectors.WithSSMClient(&mockSSMClient{err: errors.New("ExpiredTokenException")}))
	require.NoError(t, err)
	assert.Error(t, c.Validate(context.Background()))
}
