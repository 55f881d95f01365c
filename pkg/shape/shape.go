package shape

import (
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// Kind identifies an injection mechanism.
type Kind string

const (
	// KindEnv injects a field as an environment variable backed by a
	// secret key reference.
	KindEnv Kind = "env"

	// KindVolume mounts a field as a file from a secret-backed volume.
	KindVolume Kind = "volume"

	// KindAnnotation records a reference to a field in a workload
	// annotation. Binary fields never allow this kind.
	KindAnnotation Kind = "annotation"
)

// FieldSpec describes one field a shape provider exposes.
type FieldSpec struct {
	// Name is the logical field name used in injection requests.
	Name string

	// Kinds lists the injection kinds this field supports.
	Kinds []Kind

	// Binary marks key or certificate material. Binary fields must not
	// be exposed through annotations.
	Binary bool
}

// Allows reports whether the field supports the given injection kind.
func (f FieldSpec) Allows(kind Kind) bool {
	for _, k := range f.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Options carries kind-specific injection parameters supplied by the
// requesting deployment unit.
type Options struct {
	// EnvName is the environment variable to expose the field under
	// (KindEnv).
	EnvName string

	// MountPath is the directory the field's file is mounted into
	// (KindVolume).
	MountPath string

	// FileName overrides the file name within MountPath. Defaults to
	// the materialized data key (KindVolume).
	FileName string

	// AnnotationKey is the workload annotation to set (KindAnnotation).
	AnnotationKey string
}

// Identity returns the injection target named by the options alone. For
// volumes this is incomplete: an unset FileName defaults to the shape's
// data key when the fragment is built, so the fragment's mount path is
// the authoritative volume target.
func (o Options) Identity(kind Kind) string {
	switch kind {
	case KindEnv:
		return o.EnvName
	case KindVolume:
		if o.FileName != "" {
			return o.MountPath + ":" + o.FileName
		}
		return o.MountPath
	case KindAnnotation:
		return o.AnnotationKey
	}
	return ""
}

// Fragment is the patch a deployment unit applies to wire one field of a
// materialized secret into its definition. Exactly one of the kind-specific
// groups is populated. A fragment only ever references the materialized
// resource; it never carries the raw value.
type Fragment struct {
	SecretName string
	FieldName  string
	Kind       Kind

	// KindEnv
	Env *corev1.EnvVar

	// KindVolume
	Volume *corev1.Volume
	Mount  *corev1.VolumeMount

	// KindAnnotation
	AnnotationKey   string
	AnnotationValue string
}

// Equal reports whether two fragments are semantically identical, i.e. they
// reference the same field of the same secret through the same mechanism
// with the same options. Identical fragments deduplicate; differing
// fragments with the same identity conflict.
func (f Fragment) Equal(other Fragment) bool {
	if f.SecretName != other.SecretName || f.FieldName != other.FieldName || f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case KindEnv:
		return envVarEqual(f.Env, other.Env)
	case KindVolume:
		return volumeEqual(f.Volume, other.Volume) && mountEqual(f.Mount, other.Mount)
	case KindAnnotation:
		return f.AnnotationKey == other.AnnotationKey && f.AnnotationValue == other.AnnotationValue
	}
	return false
}

func envVarEqual(a, b *corev1.EnvVar) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name {
		return false
	}
	if a.ValueFrom == nil || b.ValueFrom == nil {
		return a.ValueFrom == b.ValueFrom && a.Value == b.Value
	}
	ar, br := a.ValueFrom.SecretKeyRef, b.ValueFrom.SecretKeyRef
	if ar == nil || br == nil {
		return ar == br
	}
	return ar.Name == br.Name && ar.Key == br.Key
}

func volumeEqual(a, b *corev1.Volume) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name {
		return false
	}
	as, bs := a.Secret, b.Secret
	if as == nil || bs == nil {
		return as == bs
	}
	if as.SecretName != bs.SecretName || len(as.Items) != len(bs.Items) {
		return false
	}
	for i := range as.Items {
		if as.Items[i].Key != bs.Items[i].Key || as.Items[i].Path != bs.Items[i].Path {
			return false
		}
	}
	return true
}

func mountEqual(a, b *corev1.VolumeMount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name && a.MountPath == b.MountPath && a.ReadOnly == b.ReadOnly
}

// Provider owns a secret's shape: its field schema, the materialization of
// resolved values into a persisted Secret resource, and the construction of
// injection fragments referencing that resource.
//
// Implementations are stateless and safe for concurrent use.
type Provider interface {
	// ID returns the shape's registered identifier ("basic-auth", "tls",
	// "ssh", "opaque", or a custom id).
	ID() string

	// FieldSchema returns the ordered set of fields this shape exposes.
	FieldSchema() []FieldSpec

	// RequiresAllFields reports the shape's materialization policy. When
	// true, Materialize fails with IncompleteFieldSetError unless every
	// schema field is present in the value map.
	RequiresAllFields() bool

	// Materialize builds the persisted Secret resource for one declared
	// secret from its resolved field values. Called once per secret name
	// no matter how many requests reference it.
	Materialize(secretName string, values map[string][]byte) (*corev1.Secret, error)

	// Fragment builds the injection fragment referencing the materialized
	// resource for one field and kind. Fails with FieldNotSupportedError
	// if the field is not in the schema and KindNotSupportedError if the
	// field does not allow the kind.
	Fragment(secretName, fieldName string, kind Kind, opts Options) (Fragment, error)
}

// FieldNotSupportedError reports a request for a field the shape's schema
// does not declare.
type FieldNotSupportedError struct {
	Provider string
	Field    string
	Known    []string
}

func (e FieldNotSupportedError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("shape '%s' has no field '%s'", e.Provider, e.Field)
	}
	return fmt.Sprintf("shape '%s' has no field '%s' (fields: %s)", e.Provider, e.Field, strings.Join(e.Known, ", "))
}

// KindNotSupportedError reports a request for an injection kind a field
// does not allow.
type KindNotSupportedError struct {
	Provider string
	Field    string
	Kind     Kind
}

func (e KindNotSupportedError) Error() string {
	return fmt.Sprintf("field '%s' of shape '%s' does not support %s injection", e.Field, e.Provider, e.Kind)
}

// IncompleteFieldSetError reports a Materialize call missing fields the
// shape's all-or-nothing policy requires.
type IncompleteFieldSetError struct {
	Provider string
	Missing  []string
}

func (e IncompleteFieldSetError) Error() string {
	missing := append([]string(nil), e.Missing...)
	sort.Strings(missing)
	return fmt.Sprintf("shape '%s' requires all fields; missing: %s", e.Provider, strings.Join(missing, ", "))
}

// LookupField returns the spec for a named field of a schema.
func LookupField(schema []FieldSpec, name string) (FieldSpec, bool) {
	for _, f := range schema {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the schema's field names in declaration order.
func FieldNames(schema []FieldSpec) []string {
	names := make([]string, 0, len(schema))
	for _, f := range schema {
		names = append(names, f.Name)
	}
	return names
}
