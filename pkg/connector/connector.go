package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Connector fetches raw secret field values from an external source.
//
// Implementations must be thread-safe; the resolution engine fetches
// distinct secrets concurrently. Fetch must be a pure lookup: the same
// inputs yield the same outputs within one run, and no call mutates
// connector state.
type Connector interface {
	// Name returns the connector's registered identifier. Used in
	// diagnostics and logging, never for addressing the source.
	Name() string

	// Fetch returns the raw value for one (secretName, fieldName) pair.
	// fieldName may be empty for sources that store a secret as a single
	// undivided value.
	//
	// Returns NotFoundError if the source has no value for the pair,
	// UnavailableError if the source cannot be consulted at all.
	Fetch(ctx context.Context, secretName, fieldName string) (Value, error)

	// Validate checks that the connector can reach its source with the
	// credentials it was configured with. Used by `secretwire doctor`;
	// the engine never calls it during resolution.
	Validate(ctx context.Context) error
}

// Value is a raw value fetched from a connector, together with a
// human-readable description of where it came from.
type Value struct {
	// Data is the raw field value. Never log this; wrap it in
	// logging.Secret if it must appear in a format string.
	Data []byte

	// Source describes the concrete lookup that produced the value,
	// e.g. "env:APP_API_CREDENTIALS_USERNAME". Shown in plan output
	// and debug logs.
	Source string
}

// NotFoundError indicates the source is reachable but holds no value for
// the requested (secret, field) pair.
type NotFoundError struct {
	Connector  string
	SecretName string
	FieldName  string
}

func (e NotFoundError) Error() string {
	if e.FieldName == "" {
		return fmt.Sprintf("no value for secret '%s' in connector '%s'", e.SecretName, e.Connector)
	}
	return fmt.Sprintf("no value for '%s/%s' in connector '%s'", e.SecretName, e.FieldName, e.Connector)
}

// UnavailableError indicates the external source itself could not be
// consulted (network failure, missing credentials, locked keyring).
type UnavailableError struct {
	Connector string
	Err       error
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("connector '%s' source unavailable: %v", e.Connector, e.Err)
}

func (e UnavailableError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsUnavailable reports whether err is an UnavailableError.
func IsUnavailable(err error) bool {
	var ua UnavailableError
	return errors.As(err, &ua)
}

// NameRewrite is a deterministic, connector-local transform from a logical
// (secret, field) pair to the name the connector looks up in its source.
// Prefixing is always explicit per-connector configuration; there is no
// registry-wide implicit prefix.
type NameRewrite struct {
	// Prefix is prepended verbatim to the joined name.
	Prefix string

	// Separator joins the secret name and field name. Defaults to "/"
	// when empty.
	Separator string

	// Upper folds the joined name to upper case (used by the env
	// connector, where variables are conventionally upper case).
	Upper bool
}

// Apply produces the source-side lookup name for a (secret, field) pair.
// The transform is pure so resolution stays repeatable within a run.
func (r NameRewrite) Apply(secretName, fieldName string) string {
	sep := r.Separator
	if sep == "" {
		sep = "/"
	}
	name := secretName
	if fieldName != "" {
		name = secretName + sep + fieldName
	}
	if r.Upper {
		name = strings.ToUpper(name)
	}
	return r.Prefix + name
}
