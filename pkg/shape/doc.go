// Package shape defines the contract for secret shape providers in secretwire.
//
// A shape provider owns a secret's field contract: which named fields the
// secret exposes (username/password for basic-auth, cert/key for TLS), which
// injection kinds each field supports, how the resolved field values become a
// persisted Kubernetes Secret, and how a single field is referenced from a
// workload via an injection fragment.
//
// Fragments are references into the materialized Secret resource, never
// copies of the raw value. A fragment for an env injection is a
// corev1.EnvVar with a SecretKeyRef; a volume fragment pairs a secret-backed
// corev1.Volume with its mount; an annotation fragment carries a
// secretref:// URI. Raw values therefore appear exactly once in emitted
// artifacts, inside the materialized resource.
//
// The built-in shapes (basic-auth, TLS, SSH, opaque) live in
// internal/shapes. Each is a self-contained implementation of Provider;
// there is no hierarchy between them.
package shape
