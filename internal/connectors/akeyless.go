package connectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/systmms/secretwire/pkg/connector"
)

// AkeylessAPI defines the Akeyless operations the connector uses,
// decoupled from the SDK so tests can inject mocks.
type AkeylessAPI interface {
	// Authenticate obtains an access token and its time to live.
	Authenticate(ctx context.Context) (token string, ttl time.Duration, err error)

	// GetSecretValue fetches one static secret by path.
	GetSecretValue(ctx context.Context, token, path string) (string, error)
}

// AkeylessConfig holds Akeyless connector configuration.
type AkeylessConfig struct {
	// AccessID is the Akeyless access ID (required).
	AccessID string

	// AccessKey authenticates the access ID (api_key method).
	AccessKey string

	// GatewayURL defaults to the public Akeyless API.
	GatewayURL string

	// PathPrefix is the folder the connector's secrets live under,
	// e.g. "/prod". A lookup of (db_credentials, password) becomes
	// /prod/db_credentials/password.
	PathPrefix string
}

// DefaultAkeylessGateway is the public Akeyless API endpoint.
const DefaultAkeylessGateway = "https://api.akeyless.io"

// AkeylessConnector fetches fields from Akeyless static secrets. Each
// (secret, field) pair is one item under the configured folder.
type AkeylessConnector struct {
	name       string
	client     AkeylessAPI
	config     AkeylessConfig
	tokenCache *tokenCache
}

// AkeylessOption is a functional option for the connector.
type AkeylessOption func(*AkeylessConnector)

// WithAkeylessClient sets a custom client (for testing).
func WithAkeylessClient(client AkeylessAPI) AkeylessOption {
	return func(c *AkeylessConnector) {
		c.client = client
	}
}

// NewAkeylessConnector creates an Akeyless connector.
func NewAkeylessConnector(name string, cfg AkeylessConfig, opts ...AkeylessOption) (*AkeylessConnector, error) {
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultAkeylessGateway
	}
	if cfg.AccessID == "" {
		return nil, fmt.Errorf("akeyless connector '%s': access_id is required", name)
	}

	c := &AkeylessConnector{name: name, config: cfg, tokenCache: newTokenCache()}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = newAkeylessSDKClient(cfg)
	}
	return c, nil
}

// Name implements connector.Connector.
func (c *AkeylessConnector) Name() string {
	return c.name
}

// Fetch implements connector.Connector.
func (c *AkeylessConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return connector.Value{}, connector.UnavailableError{Connector: c.name, Err: err}
	}

	path := c.secretPath(secretName, fieldName)
	value, err := c.client.GetSecretValue(ctx, token, path)
	if err != nil {
		if isAkeylessNotFound(err) {
			return connector.Value{}, connector.NotFoundError{
				Connector:  c.name,
				SecretName: secretName,
				FieldName:  fieldName,
			}
		}
		return connector.Value{}, connector.UnavailableError{Connector: c.name, Err: err}
	}

	return connector.Value{
		Data:   []byte(value),
		Source: "akeyless:" + path,
	}, nil
}

// Validate implements connector.Connector: authenticating proves the
// gateway is reachable and the credentials work.
func (c *AkeylessConnector) Validate(ctx context.Context) error {
	if _, err := c.getToken(ctx); err != nil {
		return connector.UnavailableError{Connector: c.name, Err: err}
	}
	return nil
}

// getToken returns a cached token or authenticates for a new one.
func (c *AkeylessConnector) getToken(ctx context.Context) (string, error) {
	if token, ok := c.tokenCache.Get(); ok {
		return token, nil
	}

	token, ttl, err := c.client.Authenticate(ctx)
	if err != nil {
		return "", fmt.Errorf("akeyless authentication failed: %w", err)
	}
	c.tokenCache.Set(token, ttl)

	return token, nil
}

func (c *AkeylessConnector) secretPath(secretName, fieldName string) string {
	path := strings.TrimSuffix(c.config.PathPrefix, "/") + "/" + secretName
	if fieldName != "" {
		path += "/" + fieldName
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func isAkeylessNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "not found") || strings.Contains(msg, "itemNotFound")
}
