// Package inject collects the injection requests deployment units make
// against declared secrets. The set is the engine's second input next to
// the registry: every request says "unit U wants field F of secret S
// injected via kind K with options O". Registration order is preserved;
// it decides output ordering, nothing else.
package inject

import (
	"sync"

	"github.com/systmms/secretwire/pkg/shape"
)

// Request is one unit's wish to have one field of one secret injected.
type Request struct {
	// Unit identifies the requesting deployment unit. Opaque to the
	// engine; the composition layer owns its meaning.
	Unit string

	// SecretName references a declared secret.
	SecretName string

	// FieldName references a field of the secret's shape.
	FieldName string

	// Kind is the injection mechanism.
	Kind shape.Kind

	// Options carries the kind-specific parameters.
	Options shape.Options

	// Seq is the registration sequence number, assigned by the set.
	Seq int
}

// Set accumulates requests from any number of units. Safe for concurrent
// use during the collection phase.
type Set struct {
	mu       sync.Mutex
	requests []Request
}

// NewSet creates an empty request set.
func NewSet() *Set {
	return &Set{}
}

// Add records one request and returns its sequence number.
func (s *Set) Add(unit, secretName, fieldName string, kind shape.Kind, opts shape.Options) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := len(s.requests)
	s.requests = append(s.requests, Request{
		Unit:       unit,
		SecretName: secretName,
		FieldName:  fieldName,
		Kind:       kind,
		Options:    opts,
		Seq:        seq,
	})
	return seq
}

// Requests returns a copy of all requests in registration order.
func (s *Set) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Len returns the number of collected requests.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Unit returns a builder scoped to one deployment unit. This is the
// declaration API the composition layer calls.
func (s *Set) Unit(id string) *UnitRequests {
	return &UnitRequests{set: s, unit: id}
}

// UnitRequests is a convenience builder for one unit's requests.
type UnitRequests struct {
	set  *Set
	unit string
}

// Env requests a field as an environment variable.
func (u *UnitRequests) Env(secretName, fieldName, envName string) *UnitRequests {
	u.set.Add(u.unit, secretName, fieldName, shape.KindEnv, shape.Options{EnvName: envName})
	return u
}

// Volume requests a field as a mounted file.
func (u *UnitRequests) Volume(secretName, fieldName, mountPath string) *UnitRequests {
	u.set.Add(u.unit, secretName, fieldName, shape.KindVolume, shape.Options{MountPath: mountPath})
	return u
}

// VolumeFile requests a field as a mounted file with an explicit file name.
func (u *UnitRequests) VolumeFile(secretName, fieldName, mountPath, fileName string) *UnitRequests {
	u.set.Add(u.unit, secretName, fieldName, shape.KindVolume, shape.Options{MountPath: mountPath, FileName: fileName})
	return u
}

// Annotation requests a field reference as a workload annotation.
func (u *UnitRequests) Annotation(secretName, fieldName, key string) *UnitRequests {
	u.set.Add(u.unit, secretName, fieldName, shape.KindAnnotation, shape.Options{AnnotationKey: key})
	return u
}
