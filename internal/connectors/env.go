package connectors

import (
	"context"
	"os"

	"github.com/systmms/secretwire/pkg/connector"
)

// EnvConnector reads secret values from process environment variables.
// The lookup name is the upper-cased "SECRET_FIELD" pair with an optional
// configured prefix, e.g. prefix "APP_" and (api_credentials, username)
// yields APP_API_CREDENTIALS_USERNAME.
type EnvConnector struct {
	name    string
	rewrite connector.NameRewrite
}

// NewEnvConnector creates an environment-variable connector. prefix may
// be empty; it is applied after upper-casing, so pass it upper case.
func NewEnvConnector(name, prefix string) *EnvConnector {
	return &EnvConnector{
		name: name,
		rewrite: connector.NameRewrite{
			Prefix:    prefix,
			Separator: "_",
			Upper:     true,
		},
	}
}

// Name implements connector.Connector.
func (e *EnvConnector) Name() string {
	return e.name
}

// Fetch implements connector.Connector.
func (e *EnvConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	key := e.rewrite.Apply(secretName, fieldName)

	value, ok := os.LookupEnv(key)
	if !ok {
		return connector.Value{}, connector.NotFoundError{
			Connector:  e.name,
			SecretName: secretName,
			FieldName:  fieldName,
		}
	}
	return connector.Value{
		Data:   []byte(value),
		Source: "env:" + key,
	}, nil
}

// Validate implements connector.Connector. The process environment is
// always reachable.
func (e *EnvConnector) Validate(ctx context.Context) error {
	return nil
}
