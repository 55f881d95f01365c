// Package connectors ships the built-in connector implementations: local
// sources (environment, files, static values, OS keyring) and the cloud
// secret stores (AWS Secrets Manager, AWS SSM Parameter Store, GCP Secret
// Manager, Azure Key Vault, Akeyless).
//
// Every connector translates the engine's (secretName, fieldName) pair
// into its store's addressing scheme; any name prefixing is configured
// per connector and never applied globally. Cloud connectors accept their
// SDK client through an interface so tests can inject mocks.
package connectors
