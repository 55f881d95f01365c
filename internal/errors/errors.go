// Package errors holds the user-facing error types the command layer wraps
// failures in before printing them. Engine diagnostics stay structured (see
// internal/engine); these types exist for the errors that abort a run
// outright, where a suggestion is worth more than a code.
package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ConnectorError enhances connector-specific errors with context
func ConnectorError(connector string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s connector error during %s", connector, operation),
		Suggestion: getConnectorSuggestion(connector, err),
		Err:        err,
	}
}

// getConnectorSuggestion returns helpful suggestions based on connector and error
func getConnectorSuggestion(connector string, err error) string {
	errStr := err.Error()

	switch connector {
	case "aws.secretsmanager", "aws.ssm":
		if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for the secretsmanager/ssm read actions"
		}
		if strings.Contains(errStr, "ResourceNotFoundException") {
			return "Verify the secret name and region"
		}

	case "gcp.secretmanager":
		if strings.Contains(errStr, "PermissionDenied") || strings.Contains(errStr, "Unauthenticated") {
			return "Check GCP credentials and the secretmanager.secretAccessor role"
		}

	case "azure.keyvault":
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
			return "Check Azure credentials and Key Vault access policies"
		}

	case "akeyless":
		if strings.Contains(errStr, "authentication") {
			return "Check the Akeyless access id and key, or the configured auth method"
		}

	case "keyring":
		if strings.Contains(errStr, "locked") {
			return "Unlock the OS keyring and try again"
		}
	}

	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and connector configuration"
	}

	return ""
}
