// Package engine implements the resolution pass: it drives connectors to
// fetch exactly the referenced (secret, field) pairs, drives shape providers
// to materialize resources and build injection fragments, detects conflicts
// across the full request set, and emits the ordered artifact.
//
// Failures during the pass are aggregated, not thrown. Like a compiler, the
// engine recovers per secret and per request so one missing value does not
// hide every other configuration error; the caller gets the complete
// diagnostic picture from a single run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/systmms/secretwire/internal/inject"
	"github.com/systmms/secretwire/internal/logging"
	"github.com/systmms/secretwire/internal/metrics"
	"github.com/systmms/secretwire/internal/registry"
	"github.com/systmms/secretwire/internal/secure"
	"github.com/systmms/secretwire/pkg/connector"
	"github.com/systmms/secretwire/pkg/shape"
)

// defaultConcurrency bounds parallel connector fetches so slow sources are
// not hammered with every secret at once.
const defaultConcurrency = 8

// Engine runs the resolution pass over a frozen registry and a collected
// request set.
type Engine struct {
	registry      *registry.Registry
	logger        *logging.Logger
	maxConcurrent int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConcurrency bounds the number of secrets fetched in parallel.
// Values below 1 force sequential fetching.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.maxConcurrent = n
	}
}

// New creates an engine over a registry. The first Resolve call freezes
// the registry.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:      reg,
		logger:        logging.New(false, true),
		maxConcurrent: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// secretWork is the per-secret unit of the fetch phase: the declaration
// plus the distinct fields actually referenced, in first-reference order.
type secretWork struct {
	decl   registry.SecretDeclaration
	fields []string
}

// fetchOutcome carries one secret's fetched values out of the parallel
// phase. Values stay in protected memory until materialization. Fetch
// diagnostics ride along instead of going to the shared list so they can
// be reported in sorted secret order, independent of goroutine timing.
type fetchOutcome struct {
	values map[string]*secure.Buffer
	failed bool
	diags  []Diagnostic
}

func (f *fetchOutcome) discard() {
	for _, buf := range f.values {
		buf.Destroy()
	}
}

// Resolve runs the single resolution pass and returns the emitted
// artifact. The returned error is non-nil only for cancellation; every
// per-secret and per-request failure is reported through
// Result.Diagnostics instead. There is no partial-success artifact: a
// cancelled run discards all partial results.
func (e *Engine) Resolve(ctx context.Context, set *inject.Set) (*Result, error) {
	e.registry.Freeze()
	reqs := set.Requests()
	diags := &diagList{}

	work, secretNames, unknown := e.collectWork(reqs)

	// Fetch phase. Distinct secrets are independent, so they resolve in
	// parallel; the diagnostics list is the only shared state and it
	// locks internally.
	outcomes := make([]fetchOutcome, len(secretNames))
	sem := make(chan struct{}, e.maxConcurrent)
	var wg sync.WaitGroup

	for i, name := range secretNames {
		wg.Add(1)
		go func(i int, w *secretWork) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				outcomes[i] = fetchOutcome{failed: true}
				return
			}
			outcomes[i] = e.fetchSecret(ctx, w)
		}(i, work[name])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range outcomes {
			outcomes[i].discard()
		}
		return nil, fmt.Errorf("resolution cancelled: %w", err)
	}

	// Materialization phase, sequential in sorted secret order.
	phases := make(map[string]SecretPhase, len(secretNames))
	materialized := make(map[string]*corev1.Secret, len(secretNames))

	for i, name := range secretNames {
		w := work[name]
		outcome := &outcomes[i]

		for _, d := range outcome.diags {
			diags.add(d)
		}
		if outcome.failed {
			outcome.discard()
			phases[name] = SecretFailed
			metrics.RecordSecretOutcome("failed")
			continue
		}

		secret, err := e.materializeSecret(w, outcome)
		if err != nil {
			diags.add(materializeDiagnostic(err, name))
			phases[name] = SecretFailed
			metrics.RecordSecretOutcome("failed")
			continue
		}
		materialized[name] = secret
		phases[name] = SecretMaterialized
		metrics.RecordSecretOutcome("materialized")
		e.logger.Debug("materialized secret '%s' (%d fields)", name, len(secret.Data))
	}

	// Fragment phase, in request registration order.
	reqPhases := make(map[int]RequestPhase, len(reqs))
	candidates := e.buildFragments(reqs, unknown, phases, reqPhases, diags)

	// Conflict detection across the full set.
	e.detectConflicts(candidates, reqPhases, diags)

	return e.emit(secretNames, materialized, phases, reqPhases, candidates, diags), nil
}

// collectWork groups requests by secret and gathers the distinct
// referenced fields. Secrets with no request never appear, which is what
// keeps resolution lazy, and fields the shape's schema does not know are
// never fetched: those requests fail validation instead. Secrets whose
// shape requires all fields fetch the full schema once any field is
// referenced. Returns the work map, the sorted secret names, and the set
// of referenced-but-undeclared secret names.
func (e *Engine) collectWork(reqs []inject.Request) (map[string]*secretWork, []string, map[string]bool) {
	work := make(map[string]*secretWork)
	unknown := make(map[string]bool)
	var names []string

	for _, req := range reqs {
		if unknown[req.SecretName] {
			continue
		}
		w, ok := work[req.SecretName]
		if !ok {
			decl, declared := e.registry.Secret(req.SecretName)
			if !declared {
				unknown[req.SecretName] = true
				continue
			}
			w = &secretWork{decl: decl}
			work[req.SecretName] = w
		}
		if prov, ok := e.registry.Provider(w.decl.ProviderID); ok {
			if _, known := shape.LookupField(prov.FieldSchema(), req.FieldName); !known {
				continue
			}
		}
		referenced := false
		for _, f := range w.fields {
			if f == req.FieldName {
				referenced = true
				break
			}
		}
		if !referenced {
			w.fields = append(w.fields, req.FieldName)
		}
	}

	// A secret referenced only through invalid fields has nothing to
	// fetch; every one of its requests fails validation on its own.
	for name, w := range work {
		if len(w.fields) == 0 {
			delete(work, name)
			continue
		}
		// An all-or-nothing shape materializes from its full schema, so
		// one referenced field pulls in the rest.
		if prov, ok := e.registry.Provider(w.decl.ProviderID); ok && prov.RequiresAllFields() {
			w.fields = shape.FieldNames(prov.FieldSchema())
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return work, names, unknown
}

// fetchSecret resolves every referenced field of one secret through its
// connector. Each failing pair gets its own diagnostic; any failure fails
// the whole secret.
func (e *Engine) fetchSecret(ctx context.Context, w *secretWork) fetchOutcome {
	conn, ok := e.registry.Connector(w.decl.ConnectorID)
	if !ok {
		// Unreachable when the registry enforced its invariants, but a
		// diagnostic beats a panic inside a goroutine.
		return fetchOutcome{failed: true, diags: []Diagnostic{{
			Code:    CodeSourceUnavailable,
			Message: fmt.Sprintf("secret '%s' references connector '%s' which is not registered", w.decl.Name, w.decl.ConnectorID),
			Context: DiagContext{SecretName: w.decl.Name},
		}}}
	}

	outcome := fetchOutcome{values: make(map[string]*secure.Buffer, len(w.fields))}
	for _, field := range w.fields {
		start := time.Now()
		value, err := conn.Fetch(ctx, w.decl.Name, field)
		metrics.ObserveFetch(conn.Name(), time.Since(start))

		if err != nil {
			outcome.failed = true
			outcome.diags = append(outcome.diags, fetchDiagnostic(err, w.decl.Name, field, conn.Name()))
			continue
		}
		outcome.values[field] = secure.NewBuffer(value.Data)
		e.logger.Debug("resolved %s/%s from %s", w.decl.Name, field, value.Source)
	}
	return outcome
}

// materializeSecret hands the fetched values to the shape provider and
// wipes the protected buffers afterwards.
func (e *Engine) materializeSecret(w *secretWork, outcome *fetchOutcome) (*corev1.Secret, error) {
	defer outcome.discard()

	prov, ok := e.registry.Provider(w.decl.ProviderID)
	if !ok {
		return nil, fmt.Errorf("secret '%s' references provider '%s' which is not registered", w.decl.Name, w.decl.ProviderID)
	}

	values := make(map[string][]byte, len(outcome.values))
	for field, buf := range outcome.values {
		data, err := buf.Bytes()
		if err != nil {
			return nil, fmt.Errorf("opening protected value for '%s/%s': %w", w.decl.Name, field, err)
		}
		values[field] = data
	}
	return prov.Materialize(w.decl.Name, values)
}

// candidate is a request that survived validation, with its fragment,
// before conflict detection decides whether it is kept.
type candidate struct {
	req  inject.Request
	frag shape.Fragment
	keep bool

	// dupOf points at the earlier identical candidate this one collapsed
	// into; the duplicate shares its fate.
	dupOf *candidate
}

// buildFragments validates each request against its secret's phase and
// shape, building fragments for the survivors in registration order.
func (e *Engine) buildFragments(reqs []inject.Request, unknown map[string]bool, phases map[string]SecretPhase, reqPhases map[int]RequestPhase, diags *diagList) []*candidate {
	candidates := make([]*candidate, 0, len(reqs))

	for _, req := range reqs {
		reqPhases[req.Seq] = RequestFailed
		reqCtx := DiagContext{SecretName: req.SecretName, Unit: req.Unit, FieldName: req.FieldName}

		if unknown[req.SecretName] {
			diags.add(Diagnostic{
				Code:    CodeUnknownSecret,
				Message: fmt.Sprintf("unit '%s' requests undeclared secret '%s'", req.Unit, req.SecretName),
				Context: reqCtx,
			})
			continue
		}

		decl, _ := e.registry.Secret(req.SecretName)
		prov, ok := e.registry.Provider(decl.ProviderID)
		if !ok {
			diags.add(Diagnostic{
				Code:    CodeInvalidRequest,
				Message: fmt.Sprintf("secret '%s' references provider '%s' which is not registered", req.SecretName, decl.ProviderID),
				Context: reqCtx,
			})
			continue
		}

		// Schema validation outranks the secret's fate: a request for a
		// field the shape does not have is wrong no matter what the
		// connector returned.
		if _, known := shape.LookupField(prov.FieldSchema(), req.FieldName); !known {
			err := shape.FieldNotSupportedError{Provider: prov.ID(), Field: req.FieldName, Known: shape.FieldNames(prov.FieldSchema())}
			diags.add(Diagnostic{
				Code:    CodeFieldNotSupported,
				Message: fmt.Sprintf("unit '%s': %v", req.Unit, err),
				Context: reqCtx,
			})
			continue
		}

		if phases[req.SecretName] != SecretMaterialized {
			diags.add(Diagnostic{
				Code:    CodeUpstreamSecretFailed,
				Message: fmt.Sprintf("unit '%s': secret '%s' failed upstream, skipping %s injection of field '%s'", req.Unit, req.SecretName, req.Kind, req.FieldName),
				Context: reqCtx,
			})
			continue
		}

		frag, err := prov.Fragment(req.SecretName, req.FieldName, req.Kind, req.Options)
		if err != nil {
			diags.add(fragmentDiagnostic(err, req))
			continue
		}
		reqPhases[req.Seq] = RequestValidated
		candidates = append(candidates, &candidate{req: req, frag: frag, keep: true})
	}
	return candidates
}

// conflictKey groups fragments that claim the same injection point.
type conflictKey struct {
	unit     string
	kind     shape.Kind
	identity string
}

// conflictIdentity names the injection point a candidate claims. Env and
// annotation targets come straight from the request options. Volume
// fragments are single-file mounts whose file name defaults to the shape's
// data key, so their identity is the built fragment's effective file path:
// two fields mounted into the same directory land on distinct paths, while
// an explicit file name shadowing another request's default collides.
func conflictIdentity(c *candidate) string {
	if c.req.Kind == shape.KindVolume && c.frag.Mount != nil {
		return c.frag.Mount.MountPath
	}
	return c.req.Options.Identity(c.req.Kind)
}

// detectConflicts groups candidates by (unit, kind, injection point).
// Identical duplicates collapse to the first occurrence; differing
// fragments in one group conflict and neither is planned.
func (e *Engine) detectConflicts(candidates []*candidate, reqPhases map[int]RequestPhase, diags *diagList) {
	first := make(map[conflictKey]*candidate)

	for _, c := range candidates {
		key := conflictKey{
			unit:     c.req.Unit,
			kind:     c.req.Kind,
			identity: conflictIdentity(c),
		}
		prev, seen := first[key]
		if !seen {
			first[key] = c
			continue
		}
		if prev.frag.Equal(c.frag) {
			// Harmless duplicate: same secret, field, kind, options. It
			// collapses into the first occurrence's fragment.
			c.keep = false
			c.dupOf = prev
			continue
		}

		prev.keep = false
		c.keep = false
		reqPhases[prev.req.Seq] = RequestFailed
		reqPhases[c.req.Seq] = RequestFailed
		metrics.RecordConflict()
		diags.add(Diagnostic{
			Code: CodeInjectionConflict,
			Message: fmt.Sprintf(
				"unit '%s': request #%d (%s/%s) and request #%d (%s/%s) both target %s '%s' with different content",
				c.req.Unit,
				prev.req.Seq, prev.req.SecretName, prev.req.FieldName,
				c.req.Seq, c.req.SecretName, c.req.FieldName,
				c.req.Kind, key.identity,
			),
			Context: DiagContext{SecretName: c.req.SecretName, Unit: c.req.Unit, FieldName: c.req.FieldName},
		})
	}
}

// emit assembles the final artifact with deterministic ordering: resources
// sorted by secret name, plans per unit in registration order.
func (e *Engine) emit(secretNames []string, materialized map[string]*corev1.Secret, phases map[string]SecretPhase, reqPhases map[int]RequestPhase, candidates []*candidate, diags *diagList) *Result {
	resources := make([]*corev1.Secret, 0, len(materialized))
	for _, name := range secretNames {
		if secret, ok := materialized[name]; ok {
			resources = append(resources, secret)
		}
	}

	plans := make(map[string][]PlannedFragment)
	planned := 0
	for _, c := range candidates {
		if !c.keep {
			continue
		}
		reqPhases[c.req.Seq] = RequestPlanned
		plans[c.req.Unit] = append(plans[c.req.Unit], PlannedFragment{Request: c.req, Fragment: c.frag})
		planned++
	}
	for _, c := range candidates {
		if c.dupOf != nil {
			reqPhases[c.req.Seq] = reqPhases[c.dupOf.req.Seq]
		}
	}
	metrics.RecordFragments(planned)

	units := make([]string, 0, len(plans))
	for unit := range plans {
		units = append(units, unit)
	}
	sort.Strings(units)

	diagnostics := diags.all()
	result := &Result{
		Resources:     resources,
		Plans:         plans,
		Units:         units,
		SecretPhases:  phases,
		RequestPhases: reqPhases,
		Diagnostics:   diagnostics,
		OK:            len(diagnostics) == 0,
	}

	if result.OK {
		e.logger.Debug("resolution pass complete: %d resources, %d fragments", len(resources), planned)
	} else {
		e.logger.Debug("resolution pass finished with %d diagnostics", len(diagnostics))
	}
	return result
}

// fetchDiagnostic maps a connector error to its diagnostic code. Absence
// is an unresolved value; everything else means the source itself failed.
func fetchDiagnostic(err error, secretName, fieldName, connectorName string) Diagnostic {
	ctx := DiagContext{SecretName: secretName, FieldName: fieldName}

	if connector.IsNotFound(err) {
		return Diagnostic{
			Code:    CodeUnresolvedValue,
			Message: fmt.Sprintf("connector '%s' has no value for '%s/%s'", connectorName, secretName, fieldName),
			Context: ctx,
		}
	}
	return Diagnostic{
		Code:    CodeSourceUnavailable,
		Message: fmt.Sprintf("connector '%s' failed fetching '%s/%s': %v", connectorName, secretName, fieldName, err),
		Context: ctx,
	}
}

// materializeDiagnostic maps a shape provider materialization error.
func materializeDiagnostic(err error, secretName string) Diagnostic {
	ctx := DiagContext{SecretName: secretName}

	var incomplete shape.IncompleteFieldSetError
	if errors.As(err, &incomplete) {
		return Diagnostic{Code: CodeIncompleteFieldSet, Message: err.Error(), Context: ctx}
	}
	return Diagnostic{
		Code:    CodeMaterializationFailed,
		Message: fmt.Sprintf("materializing secret '%s': %v", secretName, err),
		Context: ctx,
	}
}

// fragmentDiagnostic maps a shape provider fragment error.
func fragmentDiagnostic(err error, req inject.Request) Diagnostic {
	ctx := DiagContext{SecretName: req.SecretName, Unit: req.Unit, FieldName: req.FieldName}

	var fieldErr shape.FieldNotSupportedError
	if errors.As(err, &fieldErr) {
		return Diagnostic{Code: CodeFieldNotSupported, Message: fmt.Sprintf("unit '%s': %v", req.Unit, err), Context: ctx}
	}
	var kindErr shape.KindNotSupportedError
	if errors.As(err, &kindErr) {
		return Diagnostic{Code: CodeKindNotSupported, Message: fmt.Sprintf("unit '%s': %v", req.Unit, err), Context: ctx}
	}
	return Diagnostic{Code: CodeInvalidRequest, Message: fmt.Sprintf("unit '%s': %v", req.Unit, err), Context: ctx}
}
