package connectors

import (
	"context"

	"github.com/systmms/secretwire/pkg/connector"
)

// StaticConnector serves values from an in-memory map, keyed
// "secretName/fieldName". Intended for local development and CI runs
// where real stores are out of reach; never put production values in a
// config file.
type StaticConnector struct {
	name   string
	values map[string]string
}

// NewStaticConnector creates a static connector over a fixed value map.
func NewStaticConnector(name string, values map[string]string) *StaticConnector {
	if values == nil {
		values = make(map[string]string)
	}
	return &StaticConnector{name: name, values: values}
}

// Name implements connector.Connector.
func (s *StaticConnector) Name() string {
	return s.name
}

// Fetch implements connector.Connector.
func (s *StaticConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	key := secretName
	if fieldName != "" {
		key = secretName + "/" + fieldName
	}

	value, ok := s.values[key]
	if !ok {
		return connector.Value{}, connector.NotFoundError{
			Connector:  s.name,
			SecretName: secretName,
			FieldName:  fieldName,
		}
	}
	return connector.Value{
		Data:   []byte(value),
		Source: "static:" + key,
	}, nil
}

// Validate implements connector.Connector.
func (s *StaticConnector) Validate(ctx context.Context) error {
	return nil
}
