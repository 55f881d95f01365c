package shapes

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/systmms/secretwire/pkg/shape"
)

const sshPublicKeyKey = "ssh-publickey"

// SSH is the SSH key pair shape, materialized as a
// kubernetes.io/ssh-auth Secret. The private key is mandatory, the public
// key optional, so materialization is not all-or-nothing; Materialize fails
// only when the private key itself is absent.
type SSH struct {
	schema []shape.FieldSpec
}

// NewSSH creates the SSH shape provider.
func NewSSH() *SSH {
	return &SSH{
		schema: []shape.FieldSpec{
			{Name: "privateKey", Kinds: []shape.Kind{shape.KindEnv, shape.KindVolume}, Binary: true},
			{Name: "publicKey", Kinds: []shape.Kind{shape.KindEnv, shape.KindVolume, shape.KindAnnotation}},
		},
	}
}

// ID implements shape.Provider.
func (s *SSH) ID() string { return "ssh" }

// FieldSchema implements shape.Provider.
func (s *SSH) FieldSchema() []shape.FieldSpec { return s.schema }

// RequiresAllFields implements shape.Provider.
func (s *SSH) RequiresAllFields() bool { return false }

// Materialize implements shape.Provider.
func (s *SSH) Materialize(secretName string, values map[string][]byte) (*corev1.Secret, error) {
	privateKey, ok := values["privateKey"]
	if !ok {
		return nil, shape.IncompleteFieldSetError{Provider: s.ID(), Missing: []string{"privateKey"}}
	}

	secret := newSecret(secretName, corev1.SecretTypeSSHAuth)
	secret.Data[corev1.SSHAuthPrivateKey] = privateKey
	if publicKey, ok := values["publicKey"]; ok {
		secret.Data[sshPublicKeyKey] = publicKey
	}
	return secret, nil
}

// Fragment implements shape.Provider.
func (s *SSH) Fragment(secretName, fieldName string, kind shape.Kind, opts shape.Options) (shape.Fragment, error) {
	field, ok := shape.LookupField(s.schema, fieldName)
	if !ok {
		return shape.Fragment{}, shape.FieldNotSupportedError{Provider: s.ID(), Field: fieldName, Known: shape.FieldNames(s.schema)}
	}
	return buildFragment(s.ID(), secretName, field, s.dataKey(fieldName), kind, opts)
}

func (s *SSH) dataKey(fieldName string) string {
	switch fieldName {
	case "privateKey":
		return corev1.SSHAuthPrivateKey
	case "publicKey":
		return sshPublicKeyKey
	}
	return fieldName
}
