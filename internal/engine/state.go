package engine

// SecretPhase tracks a declared secret through the resolution pass.
// Terminal phases are Materialized and SecretFailed.
type SecretPhase int

const (
	// SecretDeclared is the initial phase: declared, not yet touched.
	SecretDeclared SecretPhase = iota

	// SecretResolving means connector fetches for the secret's
	// referenced fields are in flight.
	SecretResolving

	// SecretResolved means every referenced field fetched successfully.
	SecretResolved

	// SecretMaterialized means the shape provider built the persisted
	// resource.
	SecretMaterialized

	// SecretFailed is the terminal failure phase, reachable from any
	// non-terminal phase.
	SecretFailed
)

func (p SecretPhase) String() string {
	switch p {
	case SecretDeclared:
		return "declared"
	case SecretResolving:
		return "resolving"
	case SecretResolved:
		return "resolved"
	case SecretMaterialized:
		return "materialized"
	case SecretFailed:
		return "failed"
	}
	return "unknown"
}

// RequestPhase tracks one injection request through the pass.
type RequestPhase int

const (
	// RequestCollected is the initial phase.
	RequestCollected RequestPhase = iota

	// RequestValidated means field and kind were accepted by the shape.
	RequestValidated

	// RequestPlanned means the fragment made it into a unit's plan.
	RequestPlanned

	// RequestFailed is the terminal failure phase.
	RequestFailed
)

func (p RequestPhase) String() string {
	switch p {
	case RequestCollected:
		return "collected"
	case RequestValidated:
		return "validated"
	case RequestPlanned:
		return "planned"
	case RequestFailed:
		return "failed"
	}
	return "unknown"
}
