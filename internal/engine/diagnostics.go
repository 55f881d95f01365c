package engine

import (
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"

	"github.com/systmms/secretwire/internal/inject"
	"github.com/systmms/secretwire/pkg/shape"
)

// Code identifies a diagnostic category. Declaration-time failures
// (duplicate ids, unknown capabilities, frozen registry) are not codes:
// they abort before the pass and surface as plain errors from the registry.
type Code string

const (
	// CodeSourceUnavailable means the connector's external source could
	// not be consulted.
	CodeSourceUnavailable Code = "SourceUnavailable"

	// CodeUnresolvedValue means the source was reachable but had no
	// value for a referenced (secret, field) pair.
	CodeUnresolvedValue Code = "UnresolvedValue"

	// CodeIncompleteFieldSet means materialization lacked fields the
	// shape's all-or-nothing policy requires.
	CodeIncompleteFieldSet Code = "IncompleteFieldSet"

	// CodeMaterializationFailed means the shape provider could not
	// assemble the resource for a reason other than missing fields.
	CodeMaterializationFailed Code = "MaterializationFailed"

	// CodeFieldNotSupported means a request named a field outside the
	// shape's schema.
	CodeFieldNotSupported Code = "FieldNotSupported"

	// CodeKindNotSupported means a request's injection kind is not
	// allowed for the field.
	CodeKindNotSupported Code = "KindNotSupported"

	// CodeInjectionConflict means two requests from the same unit target
	// the same injection point with differing content.
	CodeInjectionConflict Code = "InjectionConflict"

	// CodeUpstreamSecretFailed marks requests whose secret failed
	// earlier in the pass.
	CodeUpstreamSecretFailed Code = "UpstreamSecretFailed"

	// CodeUnknownSecret means a request referenced a secret the registry
	// never declared.
	CodeUnknownSecret Code = "UnknownSecret"

	// CodeInvalidRequest covers malformed injection options, such as an
	// env injection without a variable name.
	CodeInvalidRequest Code = "InvalidRequest"
)

// DiagContext attributes a diagnostic to the identifiers involved.
type DiagContext struct {
	SecretName string `json:"secretName,omitempty"`
	Unit       string `json:"ownerUnit,omitempty"`
	FieldName  string `json:"fieldName,omitempty"`
}

// Diagnostic is one accumulated failure. Diagnostics are returned, not
// thrown: the pass keeps going so a single bad secret does not mask every
// other configuration error.
type Diagnostic struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Context DiagContext `json:"context"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// diagList is the concurrency-safe accumulator shared by the fetch
// goroutines. It is the only mutable state crossing secret boundaries.
type diagList struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (l *diagList) add(d Diagnostic) {
	l.mu.Lock()
	l.diags = append(l.diags, d)
	l.mu.Unlock()
}

func (l *diagList) all() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.diags))
	copy(out, l.diags)
	return out
}

// PlannedFragment pairs a planned fragment with the request that asked
// for it.
type PlannedFragment struct {
	Request  inject.Request
	Fragment shape.Fragment
}

// Result is the engine's emitted artifact: the materialized resources,
// the per-unit plans, and every diagnostic accumulated during the pass.
type Result struct {
	// Resources holds one materialized Secret per successfully resolved
	// secret, ordered by secret name.
	Resources []*corev1.Secret

	// Plans maps each owner unit to its fragments in request
	// registration order. The composition layer applies these; the
	// engine never mutates unit definitions.
	Plans map[string][]PlannedFragment

	// Units lists the unit ids present in Plans, sorted.
	Units []string

	// SecretPhases records the terminal phase each declared-and-referenced
	// secret reached.
	SecretPhases map[string]SecretPhase

	// RequestPhases records the terminal phase of every request, keyed by
	// its registration sequence number.
	RequestPhases map[int]RequestPhase

	// Diagnostics holds every accumulated failure, in detection order.
	Diagnostics []Diagnostic

	// OK reports whether the pass finished without a single diagnostic.
	OK bool
}
