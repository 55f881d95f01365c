package connectors

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/secretwire/pkg/connector"
)

// AzureKeyVaultAPI defines the Azure Key Vault operations the connector
// uses. Narrowed from the SDK client so tests can inject mocks.
type AzureKeyVaultAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVaultConfig holds Azure Key Vault connector configuration.
type AzureKeyVaultConfig struct {
	// VaultURL is required, e.g. https://my-vault.vault.azure.net/.
	VaultURL string

	// Service principal credentials. The default Azure credential chain
	// (managed identity, CLI, environment) is used when any is empty.
	TenantID     string
	ClientID     string
	ClientSecret string

	// Prefix is prepended to the vault-side secret name.
	Prefix string
}

// AzureKeyVaultConnector fetches fields from Azure Key Vault. Vault
// secrets are single values, so each (secret, field) pair maps to its own
// vault secret named "<prefix><secret>-<field>", mangled to the vault's
// alphanumerics-and-dashes alphabet.
type AzureKeyVaultConnector struct {
	name   string
	client AzureKeyVaultAPI
	config AzureKeyVaultConfig
}

// AzureOption is a functional option for the connector.
type AzureOption func(*AzureKeyVaultConnector)

// WithAzureClient sets a custom client (for testing).
func WithAzureClient(client AzureKeyVaultAPI) AzureOption {
	return func(c *AzureKeyVaultConnector) {
		c.client = client
	}
}

// NewAzureKeyVaultConnector creates an Azure Key Vault connector.
func NewAzureKeyVaultConnector(name string, cfg AzureKeyVaultConfig, opts ...AzureOption) (*AzureKeyVaultConnector, error) {
	if cfg.VaultURL == "" {
		return nil, fmt.Errorf("azure connector '%s': vault_url is required", name)
	}
	if _, err := url.Parse(cfg.VaultURL); err != nil {
		return nil, fmt.Errorf("azure connector '%s': invalid vault_url: %w", name, err)
	}

	c := &AzureKeyVaultConnector{name: name, config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.client != nil {
		return c, nil
	}

	client, err := newAzureKeyVaultClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Key Vault client: %w", err)
	}
	c.client = client

	return c, nil
}

func newAzureKeyVaultClient(cfg AzureKeyVaultConfig) (*azsecrets.Client, error) {
	var cred azcore.TokenCredential
	var err error

	if cfg.TenantID != "" && cfg.ClientID != "" && cfg.ClientSecret != "" {
		cred, err = azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	return azsecrets.NewClient(cfg.VaultURL, cred, nil)
}

// Name implements connector.Connector.
func (c *AzureKeyVaultConnector) Name() string {
	return c.name
}

// Fetch implements connector.Connector.
func (c *AzureKeyVaultConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	vaultName := c.vaultSecretName(secretName, fieldName)

	resp, err := c.client.GetSecret(ctx, vaultName, "", nil)
	if err != nil {
		if isAzureNotFound(err) {
			return connector.Value{}, connector.NotFoundError{
				Connector:  c.name,
				SecretName: secretName,
				FieldName:  fieldName,
			}
		}
		return connector.Value{}, connector.UnavailableError{Connector: c.name, Err: err}
	}

	if resp.Value == nil {
		return connector.Value{}, connector.NotFoundError{
			Connector:  c.name,
			SecretName: secretName,
			FieldName:  fieldName,
		}
	}

	return connector.Value{
		Data:   []byte(*resp.Value),
		Source: "azure-kv:" + strings.TrimSuffix(c.config.VaultURL, "/") + "/" + vaultName,
	}, nil
}

// Validate implements connector.Connector: a probe lookup verifies
// credentials; a clean 404 means the vault answered.
func (c *AzureKeyVaultConnector) Validate(ctx context.Context) error {
	_, err := c.client.GetSecret(ctx, "secretwire-probe", "", nil)
	if err != nil && !isAzureNotFound(err) {
		return connector.UnavailableError{Connector: c.name, Err: err}
	}
	return nil
}

// azureNameSanitizer strips characters Key Vault secret names do not
// allow (alphanumerics and dashes only).
var azureNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-]`)

func (c *AzureKeyVaultConnector) vaultSecretName(secretName, fieldName string) string {
	name := c.config.Prefix + secretName
	if fieldName != "" {
		name += "-" + fieldName
	}
	return strings.ToLower(azureNameSanitizer.ReplaceAllString(name, "-"))
}

func isAzureNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 404
	}
	return false
}
