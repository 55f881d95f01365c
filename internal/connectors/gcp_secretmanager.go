package connectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"

	"github.com/systmms/secretwire/pkg/connector"
)

// GCPSecretManagerAPI defines the GCP Secret Manager operations the
// connector uses. Narrowed from the SDK client so tests can inject mocks.
type GCPSecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// GCPSecretManagerConfig holds GCP Secret Manager connector configuration.
type GCPSecretManagerConfig struct {
	// ProjectID is required unless GOOGLE_CLOUD_PROJECT is set.
	ProjectID string

	// ServiceAccountKeyPath points to a service account key file. The
	// application-default credential chain is used when empty.
	ServiceAccountKeyPath string

	// ImpersonateAccount is a service account to impersonate.
	ImpersonateAccount string

	// Prefix is prepended to the store-side secret name.
	Prefix string
}

// GCPSecretManagerConnector fetches fields from Google Cloud Secret
// Manager. GCP secrets are single values, so each (secret, field) pair
// maps to its own store secret named "<prefix><secret>-<field>".
type GCPSecretManagerConnector struct {
	name   string
	client GCPSecretManagerAPI
	config GCPSecretManagerConfig
}

// GCPOption is a functional option for the connector.
type GCPOption func(*GCPSecretManagerConnector)

// WithGCPClient sets a custom client (for testing).
func WithGCPClient(client GCPSecretManagerAPI) GCPOption {
	return func(c *GCPSecretManagerConnector) {
		c.client = client
	}
}

// NewGCPSecretManagerConnector creates a GCP Secret Manager connector.
func NewGCPSecretManagerConnector(name string, cfg GCPSecretManagerConfig, opts ...GCPOption) (*GCPSecretManagerConnector, error) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gcp connector '%s': project_id is required (or set GOOGLE_CLOUD_PROJECT)", name)
	}

	c := &GCPSecretManagerConnector{name: name, config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.client != nil {
		return c, nil
	}

	client, err := newGCPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}
	c.client = client

	return c, nil
}

func newGCPClient(cfg GCPSecretManagerConfig) (*secretmanager.Client, error) {
	ctx := context.Background()

	var clientOptions []option.ClientOption

	if cfg.ServiceAccountKeyPath != "" {
		keyPath := cfg.ServiceAccountKeyPath
		if strings.HasPrefix(keyPath, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			keyPath = filepath.Join(home, keyPath[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
	}

	if cfg.ImpersonateAccount != "" {
		tokenSource, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: cfg.ImpersonateAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create impersonated credentials: %w", err)
		}
		clientOptions = append(clientOptions, option.WithTokenSource(tokenSource))
	}

	return secretmanager.NewClient(ctx, clientOptions...)
}

// Name implements connector.Connector.
func (c *GCPSecretManagerConnector) Name() string {
	return c.name
}

// Fetch implements connector.Connector.
func (c *GCPSecretManagerConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	resourceName := c.resourceName(secretName, fieldName)

	result, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		if isGCPNotFound(err) {
			return connector.Value{}, connector.NotFoundError{
				Connector:  c.name,
				SecretName: secretName,
				FieldName:  fieldName,
			}
		}
		return connector.Value{}, connector.UnavailableError{Connector: c.name, Err: err}
	}

	if result.Payload == nil || result.Payload.Data == nil {
		return connector.Value{}, connector.NotFoundError{
			Connector:  c.name,
			SecretName: secretName,
			FieldName:  fieldName,
		}
	}

	return connector.Value{
		Data:   result.Payload.Data,
		Source: "gcp-sm:" + resourceName,
	}, nil
}

// Validate implements connector.Connector: accessing a known-absent probe
// secret verifies credentials; a clean NotFound means the store answered.
func (c *GCPSecretManagerConnector) Validate(ctx context.Context) error {
	_, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: c.resourceName("secretwire-probe", "probe"),
	})
	if err != nil && !isGCPNotFound(err) {
		return connector.UnavailableError{Connector: c.name, Err: err}
	}
	return nil
}

// gcpNameSanitizer strips characters GCP secret IDs do not allow.
var gcpNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (c *GCPSecretManagerConnector) resourceName(secretName, fieldName string) string {
	id := c.config.Prefix + secretName
	if fieldName != "" {
		id += "-" + fieldName
	}
	id = gcpNameSanitizer.ReplaceAllString(id, "-")
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.config.ProjectID, id)
}

func isGCPNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "not found")
}
