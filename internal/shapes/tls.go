package shapes

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/systmms/secretwire/pkg/shape"
)

// TLS is the certificate/key pair shape, materialized as a
// kubernetes.io/tls Secret. Both fields are key material, so annotations
// are disallowed, and materialization is all-or-nothing: tls Secrets must
// carry both tls.crt and tls.key.
type TLS struct {
	schema []shape.FieldSpec
}

// NewTLS creates the TLS shape provider.
func NewTLS() *TLS {
	return &TLS{
		schema: []shape.FieldSpec{
			{Name: "cert", Kinds: []shape.Kind{shape.KindEnv, shape.KindVolume}, Binary: true},
			{Name: "key", Kinds: []shape.Kind{shape.KindEnv, shape.KindVolume}, Binary: true},
		},
	}
}

// ID implements shape.Provider.
func (t *TLS) ID() string { return "tls" }

// FieldSchema implements shape.Provider.
func (t *TLS) FieldSchema() []shape.FieldSpec { return t.schema }

// RequiresAllFields implements shape.Provider.
func (t *TLS) RequiresAllFields() bool { return true }

// Materialize implements shape.Provider.
func (t *TLS) Materialize(secretName string, values map[string][]byte) (*corev1.Secret, error) {
	if missing := missingFields(t.schema, values); len(missing) > 0 {
		return nil, shape.IncompleteFieldSetError{Provider: t.ID(), Missing: missing}
	}

	secret := newSecret(secretName, corev1.SecretTypeTLS)
	secret.Data[corev1.TLSCertKey] = values["cert"]
	secret.Data[corev1.TLSPrivateKeyKey] = values["key"]
	return secret, nil
}

// Fragment implements shape.Provider.
func (t *TLS) Fragment(secretName, fieldName string, kind shape.Kind, opts shape.Options) (shape.Fragment, error) {
	field, ok := shape.LookupField(t.schema, fieldName)
	if !ok {
		return shape.Fragment{}, shape.FieldNotSupportedError{Provider: t.ID(), Field: fieldName, Known: shape.FieldNames(t.schema)}
	}
	return buildFragment(t.ID(), secretName, field, t.dataKey(fieldName), kind, opts)
}

func (t *TLS) dataKey(fieldName string) string {
	switch fieldName {
	case "cert":
		return corev1.TLSCertKey
	case "key":
		return corev1.TLSPrivateKeyKey
	}
	return fieldName
}
