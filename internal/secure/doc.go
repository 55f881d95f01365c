// Package secure provides memory-safe storage for sensitive material.
//
// Resolved secret values live here between the connector fetch and the
// shape provider's materialization. The underlying storage is a
// memguard.Enclave: values are encrypted at rest in memory and the backing
// pages are mlocked where the platform allows it.
package secure
