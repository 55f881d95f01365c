package shapes

import (
	"fmt"

	"github.com/systmms/secretwire/pkg/shape"
)

// Builtin returns the built-in shape provider for a well-known id, or
// false when the id needs a custom field declaration.
func Builtin(id string) (shape.Provider, bool) {
	switch id {
	case "basic-auth":
		return NewBasicAuth(), true
	case "tls":
		return NewTLS(), true
	case "ssh":
		return NewSSH(), true
	}
	return nil, false
}

// BuiltinIDs lists the shape ids available without a custom declaration.
func BuiltinIDs() []string {
	return []string{"basic-auth", "ssh", "tls"}
}

// FromDeclaration builds a shape provider from a declaration: a built-in
// id, or a custom opaque shape when fields are given. Declaring fields for
// a built-in id is rejected so the two cannot drift apart.
func FromDeclaration(id string, fields []shape.FieldSpec) (shape.Provider, error) {
	builtin, ok := Builtin(id)
	if ok {
		if len(fields) > 0 {
			return nil, fmt.Errorf("shape '%s' is built-in and does not accept a field declaration", id)
		}
		return builtin, nil
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("shape '%s' is not built-in and declares no fields", id)
	}
	return NewCustom(id, fields), nil
}
