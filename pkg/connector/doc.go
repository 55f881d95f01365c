// Package connector defines the contract for secret value sources in secretwire.
//
// A Connector fetches raw field values from an external source (process
// environment, files on disk, OS keyring, a cloud secret manager) addressed
// by a logical secret name and a field name. Connectors perform pure lookups:
// they hold only immutable configuration and must be safe for concurrent use.
//
// Connectors never decide how a value is shaped or injected. That is the job
// of shape providers (see the shape package). The resolution engine drives
// both: it asks a connector for exactly the (secret, field) pairs that at
// least one deployment unit requested, and nothing else.
//
// Implementations should return NotFoundError when the source is reachable
// but holds no value for the requested pair, and UnavailableError when the
// source itself cannot be consulted. The engine maps the former to an
// unresolved-value diagnostic and the latter to a source-unavailable
// diagnostic; both are aggregated rather than aborting the run.
package connector
