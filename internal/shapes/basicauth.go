package shapes

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/systmms/secretwire/pkg/shape"
)

// BasicAuth is the username/password shape. It materializes a
// kubernetes.io/basic-auth Secret and requires both fields to be resolved:
// a basic-auth credential with only half a pair is never useful.
type BasicAuth struct {
	schema []shape.FieldSpec
}

// NewBasicAuth creates the basic-auth shape provider.
func NewBasicAuth() *BasicAuth {
	return &BasicAuth{
		schema: []shape.FieldSpec{
			{Name: "username", Kinds: []shape.Kind{shape.KindEnv, shape.KindVolume, shape.KindAnnotation}},
			{Name: "password", Kinds: []shape.Kind{shape.KindEnv, shape.KindVolume, shape.KindAnnotation}},
		},
	}
}

// ID implements shape.Provider.
func (b *BasicAuth) ID() string { return "basic-auth" }

// FieldSchema implements shape.Provider.
func (b *BasicAuth) FieldSchema() []shape.FieldSpec { return b.schema }

// RequiresAllFields implements shape.Provider. Basic-auth is all-or-nothing.
func (b *BasicAuth) RequiresAllFields() bool { return true }

// Materialize implements shape.Provider.
func (b *BasicAuth) Materialize(secretName string, values map[string][]byte) (*corev1.Secret, error) {
	if missing := missingFields(b.schema, values); len(missing) > 0 {
		return nil, shape.IncompleteFieldSetError{Provider: b.ID(), Missing: missing}
	}

	secret := newSecret(secretName, corev1.SecretTypeBasicAuth)
	secret.Data[corev1.BasicAuthUsernameKey] = values["username"]
	secret.Data[corev1.BasicAuthPasswordKey] = values["password"]
	return secret, nil
}

// Fragment implements shape.Provider.
func (b *BasicAuth) Fragment(secretName, fieldName string, kind shape.Kind, opts shape.Options) (shape.Fragment, error) {
	field, ok := shape.LookupField(b.schema, fieldName)
	if !ok {
		return shape.Fragment{}, shape.FieldNotSupportedError{Provider: b.ID(), Field: fieldName, Known: shape.FieldNames(b.schema)}
	}
	return buildFragment(b.ID(), secretName, field, b.dataKey(fieldName), kind, opts)
}

// dataKey maps logical field names to the well-known basic-auth data keys.
func (b *BasicAuth) dataKey(fieldName string) string {
	switch fieldName {
	case "username":
		return corev1.BasicAuthUsernameKey
	case "password":
		return corev1.BasicAuthPasswordKey
	}
	return fieldName
}
