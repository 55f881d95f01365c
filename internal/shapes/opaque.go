package shapes

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/systmms/secretwire/pkg/shape"
)

// Opaque is the caller-defined multi-field shape, materialized as an
// Opaque Secret. Fields come from the declaration, each with its own
// allowed kinds; materialization takes whatever subset of fields was
// actually requested and resolved.
type Opaque struct {
	id     string
	schema []shape.FieldSpec
}

// NewOpaque creates an opaque shape with arbitrary named fields, each
// allowing every injection kind.
func NewOpaque(id string, fieldNames []string) *Opaque {
	schema := make([]shape.FieldSpec, 0, len(fieldNames))
	for _, name := range fieldNames {
		schema = append(schema, shape.FieldSpec{
			Name:  name,
			Kinds: []shape.Kind{shape.KindEnv, shape.KindVolume, shape.KindAnnotation},
		})
	}
	return &Opaque{id: id, schema: schema}
}

// NewCustom creates an opaque shape with full per-field control over
// allowed kinds and binary marking. Binary fields lose the annotation kind
// even if the declaration listed it.
func NewCustom(id string, fields []shape.FieldSpec) *Opaque {
	schema := make([]shape.FieldSpec, 0, len(fields))
	for _, f := range fields {
		if f.Binary {
			kinds := make([]shape.Kind, 0, len(f.Kinds))
			for _, k := range f.Kinds {
				if k != shape.KindAnnotation {
					kinds = append(kinds, k)
				}
			}
			f.Kinds = kinds
		}
		if len(f.Kinds) == 0 {
			f.Kinds = []shape.Kind{shape.KindEnv, shape.KindVolume}
			if !f.Binary {
				f.Kinds = append(f.Kinds, shape.KindAnnotation)
			}
		}
		schema = append(schema, f)
	}
	return &Opaque{id: id, schema: schema}
}

// ID implements shape.Provider.
func (o *Opaque) ID() string { return o.id }

// FieldSchema implements shape.Provider.
func (o *Opaque) FieldSchema() []shape.FieldSpec { return o.schema }

// RequiresAllFields implements shape.Provider.
func (o *Opaque) RequiresAllFields() bool { return false }

// Materialize implements shape.Provider. Only fields both declared and
// resolved end up in the resource; an empty intersection is still an error
// since a Secret with no data is meaningless.
func (o *Opaque) Materialize(secretName string, values map[string][]byte) (*corev1.Secret, error) {
	secret := newSecret(secretName, corev1.SecretTypeOpaque)
	for _, f := range o.schema {
		if v, ok := values[f.Name]; ok {
			secret.Data[f.Name] = v
		}
	}
	if len(secret.Data) == 0 {
		return nil, shape.IncompleteFieldSetError{Provider: o.id, Missing: shape.FieldNames(o.schema)}
	}
	return secret, nil
}

// Fragment implements shape.Provider. Opaque data keys are the field names.
func (o *Opaque) Fragment(secretName, fieldName string, kind shape.Kind, opts shape.Options) (shape.Fragment, error) {
	field, ok := shape.LookupField(o.schema, fieldName)
	if !ok {
		return shape.Fragment{}, shape.FieldNotSupportedError{Provider: o.id, Field: fieldName, Known: shape.FieldNames(o.schema)}
	}
	return buildFragment(o.id, secretName, field, fieldName, kind, opts)
}
