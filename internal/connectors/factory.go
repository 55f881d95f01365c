package connectors

import (
	"fmt"
	"sort"

	"github.com/systmms/secretwire/pkg/connector"
)

// Factory creates a connector instance from its configuration map.
type Factory func(name string, settings map[string]interface{}) (connector.Connector, error)

// FactoryRegistry maps connector type strings from configuration to
// their factories.
type FactoryRegistry struct {
	factories map[string]Factory
}

// NewFactoryRegistry creates a registry with the built-in connector types.
func NewFactoryRegistry() *FactoryRegistry {
	r := &FactoryRegistry{factories: make(map[string]Factory)}

	r.Register("env", newEnvFactory)
	r.Register("static", newStaticFactory)
	r.Register("file", newFileFactory)
	r.Register("keyring", newKeyringFactory)
	r.Register("aws.secretsmanager", newSecretsManagerFactory)
	r.Register("aws.ssm", newSSMFactory)
	r.Register("gcp.secretmanager", newGCPFactory)
	r.Register("azure.keyvault", newAzureFactory)
	r.Register("akeyless", newAkeylessFactory)

	return r
}

// Register adds or replaces a factory for a connector type.
func (r *FactoryRegistry) Register(connectorType string, factory Factory) {
	r.factories[connectorType] = factory
}

// Create builds a connector of the given type.
func (r *FactoryRegistry) Create(connectorType, name string, settings map[string]interface{}) (connector.Connector, error) {
	factory, ok := r.factories[connectorType]
	if !ok {
		return nil, fmt.Errorf("unknown connector type '%s' (supported: %v)", connectorType, r.SupportedTypes())
	}
	return factory(name, settings)
}

// SupportedTypes returns the registered connector types, sorted.
func (r *FactoryRegistry) SupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsSupported reports whether a connector type is registered.
func (r *FactoryRegistry) IsSupported(connectorType string) bool {
	_, ok := r.factories[connectorType]
	return ok
}

// Built-in factories. Settings come from the YAML config, so values
// arrive as interface{} and are extracted with the helpers below.

func newEnvFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	return NewEnvConnector(name, settingString(settings, "prefix")), nil
}

func newStaticFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	values := make(map[string]string)
	if raw, ok := settings["values"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				values[k] = s
			}
		}
	}
	return NewStaticConnector(name, values), nil
}

func newFileFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	return NewFileConnector(name, settingString(settings, "root"))
}

func newKeyringFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	return NewKeyringConnector(name, settingString(settings, "service_prefix")), nil
}

func newSecretsManagerFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	return NewSecretsManagerConnector(name, SecretsManagerConfig{
		Region:          settingString(settings, "region"),
		Endpoint:        settingString(settings, "endpoint"),
		Prefix:          settingString(settings, "prefix"),
		AccessKeyID:     settingString(settings, "access_key_id"),
		SecretAccessKey: settingString(settings, "secret_access_key"),
	})
}

func newSSMFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	cfg := SSMConfig{
		Region:          settingString(settings, "region"),
		Endpoint:        settingString(settings, "endpoint"),
		PathPrefix:      settingString(settings, "path_prefix"),
		AccessKeyID:     settingString(settings, "access_key_id"),
		SecretAccessKey: settingString(settings, "secret_access_key"),
	}
	if decrypt, ok := settings["with_decryption"].(bool); ok {
		cfg.WithDecryption = &decrypt
	}
	return NewSSMConnector(name, cfg)
}

func newGCPFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	return NewGCPSecretManagerConnector(name, GCPSecretManagerConfig{
		ProjectID:             settingString(settings, "project_id"),
		ServiceAccountKeyPath: settingString(settings, "service_account_key_path"),
		ImpersonateAccount:    settingString(settings, "impersonate_service_account"),
		Prefix:                settingString(settings, "prefix"),
	})
}

func newAzureFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	return NewAzureKeyVaultConnector(name, AzureKeyVaultConfig{
		VaultURL:     settingString(settings, "vault_url"),
		TenantID:     settingString(settings, "tenant_id"),
		ClientID:     settingString(settings, "client_id"),
		ClientSecret: settingString(settings, "client_secret"),
		Prefix:       settingString(settings, "prefix"),
	})
}

func newAkeylessFactory(name string, settings map[string]interface{}) (connector.Connector, error) {
	return NewAkeylessConnector(name, AkeylessConfig{
		AccessID:   settingString(settings, "access_id"),
		AccessKey:  settingString(settings, "access_key"),
		GatewayURL: settingString(settings, "gateway_url"),
		PathPrefix: settingString(settings, "path_prefix"),
	})
}

func settingString(settings map[string]interface{}, key string) string {
	if v, ok := settings[key].(string); ok {
		return v
	}
	return ""
}
