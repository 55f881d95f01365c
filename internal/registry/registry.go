// Package registry holds the declared mapping of secret names to the
// capabilities that resolve and shape them. Connector ids, shape provider
// ids, and secret names are three independent namespaces. Registration
// order matters: a secret can only reference capabilities that are already
// registered. Once resolution starts the registry freezes and every further
// mutation fails.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/systmms/secretwire/pkg/connector"
	"github.com/systmms/secretwire/pkg/shape"
)

// SecretDeclaration maps a secret name to the shape provider that owns its
// field contract and the connector that fetches its values.
type SecretDeclaration struct {
	// Name uniquely identifies the secret within the registry.
	Name string

	// ProviderID references a registered shape provider.
	ProviderID string

	// ConnectorID references a registered connector. Empty means the
	// registry-wide default connector, if one was set.
	ConnectorID string
}

// Registry is the declaration-phase state of a run. It is safe for
// concurrent reads after Freeze; mutations are serialized internally.
type Registry struct {
	mu               sync.RWMutex
	connectors       map[string]connector.Connector
	providers        map[string]shape.Provider
	secrets          map[string]SecretDeclaration
	defaultConnector string
	frozen           bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		connectors: make(map[string]connector.Connector),
		providers:  make(map[string]shape.Provider),
		secrets:    make(map[string]SecretDeclaration),
	}
}

// AddConnector registers a connector under id.
func (r *Registry) AddConnector(id string, c connector.Connector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return RegistryFrozenError{Op: "AddConnector"}
	}
	if _, exists := r.connectors[id]; exists {
		return DuplicateIdentifierError{Namespace: "connector", ID: id}
	}
	r.connectors[id] = c
	return nil
}

// AddProvider registers a shape provider under id.
func (r *Registry) AddProvider(id string, p shape.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return RegistryFrozenError{Op: "AddProvider"}
	}
	if _, exists := r.providers[id]; exists {
		return DuplicateIdentifierError{Namespace: "provider", ID: id}
	}
	r.providers[id] = p
	return nil
}

// SetDefaultConnector designates the connector used by declarations that
// leave ConnectorID empty. The connector must already be registered.
func (r *Registry) SetDefaultConnector(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return RegistryFrozenError{Op: "SetDefaultConnector"}
	}
	if _, exists := r.connectors[id]; !exists {
		return UnknownConnectorError{ID: id}
	}
	r.defaultConnector = id
	return nil
}

// AddSecret declares a secret. The referenced provider and connector must
// already be registered; dependencies come first.
func (r *Registry) AddSecret(decl SecretDeclaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return RegistryFrozenError{Op: "AddSecret"}
	}
	if _, exists := r.secrets[decl.Name]; exists {
		return DuplicateIdentifierError{Namespace: "secret", ID: decl.Name}
	}
	if _, exists := r.providers[decl.ProviderID]; !exists {
		return UnknownProviderError{ID: decl.ProviderID, Secret: decl.Name}
	}
	if decl.ConnectorID == "" {
		if r.defaultConnector == "" {
			return UnknownConnectorError{ID: "", Secret: decl.Name}
		}
		decl.ConnectorID = r.defaultConnector
	}
	if _, exists := r.connectors[decl.ConnectorID]; !exists {
		return UnknownConnectorError{ID: decl.ConnectorID, Secret: decl.Name}
	}
	r.secrets[decl.Name] = decl
	return nil
}

// Freeze ends the declaration phase. Idempotent; called by the engine
// before its first read.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether the declaration phase has ended.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Connector returns a registered connector by id.
func (r *Registry) Connector(id string) (connector.Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[id]
	return c, ok
}

// Provider returns a registered shape provider by id.
func (r *Registry) Provider(id string) (shape.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Secret returns a declaration by secret name.
func (r *Registry) Secret(name string) (SecretDeclaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.secrets[name]
	return d, ok
}

// Secrets returns all declarations sorted by secret name. Sorted order is
// what makes emitted artifacts reproducible across runs.
func (r *Registry) Secrets() []SecretDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]SecretDeclaration, 0, len(r.secrets))
	for _, d := range r.secrets {
		decls = append(decls, d)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// ConnectorIDs returns the registered connector ids, sorted.
func (r *Registry) ConnectorIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.connectors))
	for id := range r.connectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DuplicateIdentifierError reports a second registration under an id that
// is already taken in the same namespace.
type DuplicateIdentifierError struct {
	Namespace string // "connector", "provider", or "secret"
	ID        string
}

func (e DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%s '%s' is already registered", e.Namespace, e.ID)
}

// UnknownProviderError reports a secret declaration naming a shape provider
// that has not been registered yet.
type UnknownProviderError struct {
	ID     string
	Secret string
}

func (e UnknownProviderError) Error() string {
	return fmt.Sprintf("secret '%s' references unknown provider '%s' (register providers before secrets)", e.Secret, e.ID)
}

// UnknownConnectorError reports a secret declaration naming a connector that
// has not been registered, or an empty connector with no default set.
type UnknownConnectorError struct {
	ID     string
	Secret string
}

func (e UnknownConnectorError) Error() string {
	if e.ID == "" {
		if e.Secret != "" {
			return fmt.Sprintf("secret '%s' has no connector and no default connector is set", e.Secret)
		}
		return "no connector id given and no default connector is set"
	}
	if e.Secret != "" {
		return fmt.Sprintf("secret '%s' references unknown connector '%s' (register connectors before secrets)", e.Secret, e.ID)
	}
	return fmt.Sprintf("unknown connector '%s'", e.ID)
}

// RegistryFrozenError reports a mutation attempted after resolution began.
type RegistryFrozenError struct {
	Op string
}

func (e RegistryFrozenError) Error() string {
	return fmt.Sprintf("registry is frozen: %s is not allowed after resolution has started", e.Op)
}
