package connectors

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/systmms/secretwire/pkg/connector"
)

// KeyringConnector reads secret values from the OS keyring (macOS
// Keychain, Linux Secret Service, Windows Credential Manager). The
// keyring service is "<servicePrefix><secretName>" and the account is
// the field name.
type KeyringConnector struct {
	name          string
	servicePrefix string
}

// NewKeyringConnector creates an OS keyring connector. servicePrefix is
// typically a reverse-DNS namespace like "com.example.".
func NewKeyringConnector(name, servicePrefix string) *KeyringConnector {
	return &KeyringConnector{name: name, servicePrefix: servicePrefix}
}

// Name implements connector.Connector.
func (k *KeyringConnector) Name() string {
	return k.name
}

// Fetch implements connector.Connector.
func (k *KeyringConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	if err := ctx.Err(); err != nil {
		return connector.Value{}, connector.UnavailableError{Connector: k.name, Err: err}
	}

	service := k.servicePrefix + secretName
	value, err := keyring.Get(service, fieldName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return connector.Value{}, connector.NotFoundError{
				Connector:  k.name,
				SecretName: secretName,
				FieldName:  fieldName,
			}
		}
		// Locked keyring, missing D-Bus session, unsupported platform.
		return connector.Value{}, connector.UnavailableError{Connector: k.name, Err: err}
	}

	return connector.Value{
		Data:   []byte(value),
		Source: "keyring:" + service + "/" + fieldName,
	}, nil
}

// Validate implements connector.Connector. A probe lookup distinguishes
// "keyring reachable but empty" from "keyring unusable".
func (k *KeyringConnector) Validate(ctx context.Context) error {
	_, err := keyring.Get(k.servicePrefix+"secretwire-probe", "probe")
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return connector.UnavailableError{Connector: k.name, Err: err}
	}
	return nil
}
