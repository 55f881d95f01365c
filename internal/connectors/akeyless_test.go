package connectors_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/pkg/connector"
)

// mockAkeylessClient implements connectors.AkeylessAPI.
type mockAkeylessClient struct {
	secrets   map[string]string
	authCalls int
	authErr   error
	fetchErr  error
}

func (m *mockAkeylessClient) Authenticate(ctx context.Context) (string, time.Duration, error) {
	m.authCalls++
	if m.authErr != nil {
		return "", 0, m.authErr
	}
	return "t-token", 25 * time.Minute, nil
}

func (m *mockAkeylessClient) GetSecretValue(ctx context.Context, token, path string) (string, error) {
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	value, ok := m.secrets[path]
	if !ok {
		return "", errors.New("itemNotFound: no such item")
	}
	return value, nil
}

func newAkeylessForTest(t *testing.T, client connectors.AkeylessAPI) *connectors.AkeylessConnector {
	t.Helper()
	c, err := connectors.NewAkeylessConnector("akeyless", connectors.AkeylessConfig{
		AccessID:   "p-12345",
		PathPrefix: "/prod",
	}, connectors.WithAkeylessClient(client))
	require.NoError(t, err)
	return c
}

func TestAkeylessConnectorFetch(t *testing.T) {
	t.Parallel()

	client := &mockAkeylessClient{secrets: map[string]string{
		"/prod/db_credentials/password": "hunter2",
	}}
	c := newAkeylessForTest(t, client)

	value, err := c.Fetch(context.Background(), "db_credentials", "password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(value.Data))
	assert.Equal(t, "akeyless:/prod/db_credentials/password", value.Source)
}

func TestAkeylessConnectorTokenReuse(t *testing.T) {
	t.Parallel()

	client := &mockAkeylessClient{secrets: map[string]string{
		"/prod/db/username": "u",
		"/prod/db/password": "p",
	}}
	c := newAkeylessForTest(t, client)

	_, err := c.Fetch(context.Background(), "db", "username")
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "db", "password")
	require.NoError(t, err)

	assert.Equal(t, 1, client.authCalls, "token must be cached across fetches")
}

func TestAkeylessConnectorNotFound(t *testing.T) {
	t.Parallel()

	c := newAkeylessForTest(t, &mockAkeylessClient{})
	_, err := c.Fetch(context.Background(), "ghost", "password")
	assert.True(t, connector.IsNotFound(err))
}

func TestAkeylessConnectorAuthFailure(t *testing.T) {
	t.Parallel()

	c := newAkeylessForTest(t, &mockAkeylessClient{authErr: errors.New("invalid access key")})

	_, err := c.Fetch(context.Background(), "db", "password")
	assert.True(t, connector.IsUnavailable(err))
	assert.Error(t, c.Validate(context.Background()))
}

func TestAkeylessConnectorValidate(t *testing.T) {
	t.Parallel()

	client := &mockAkeylessClient{}
	c := newAkeylessForTest(t, client)
	assert.NoError(t, c.Validate(context.Background()))
	assert.Equal(t, 1, client.authCalls)
}

func TestAkeylessConnectorRequiresAccessID(t *testing.T) {
	t.Parallel()

	_, err := connectors.NewAkeylessConnector("akeyless", connectors.AkeylessConfig{},
		connectors.WithAkeylessClient(&mockAkeylessClient{}))
	assert.Error(t, err)
}
