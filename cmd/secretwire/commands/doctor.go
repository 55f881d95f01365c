package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewDoctorCommand(opts *Options) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check connector connectivity and configuration",
		Long: `Verify that every configured connector can reach its source with the
credentials it was given. No secret value is fetched; each connector
only probes its source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger()

			logger.Info("Checking secretwire configuration...")
			def, reg, _, err := opts.build()
			if err != nil {
				logger.Error("Configuration error: %v", err)
				return err
			}
			logger.Info("Configuration loaded successfully")

			results := make([]connectorHealth, 0, len(def.Connectors))
			for _, id := range reg.ConnectorIDs() {
				health := connectorHealth{
					Name: id,
					Type: def.Connectors[id].Type,
				}

				conn, ok := reg.Connector(id)
				if !ok {
					health.Status = "error"
					health.Error = "connector not registered"
					results = append(results, health)
					continue
				}

				if err := conn.Validate(cmd.Context()); err != nil {
					health.Status = "error"
					health.Error = err.Error()
					health.Suggestions = getConnectorSuggestions(health.Type, err)
				} else {
					health.Status = "healthy"
					health.Message = "Connector is ready"
				}

				results = append(results, health)
			}

			displayHealthResults(results, verbose)

			healthy := 0
			for _, result := range results {
				if result.Status == "healthy" {
					healthy++
				}
			}

			fmt.Printf("\nSummary: %d/%d connectors healthy\n", healthy, len(results))
			if healthy < len(results) {
				return fmt.Errorf("some connectors are not healthy")
			}

			logger.Info("All connectors operational!")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for unhealthy connectors")

	return cmd
}

// connectorHealth represents the health status of one configured connector.
type connectorHealth struct {
	Name        string
	Type        string
	Status      string
	Error       string
	Message     string
	Suggestions []string
}

// displayHealthResults shows connector health in a formatted table.
func displayHealthResults(results []connectorHealth, verbose bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CONNECTOR\tTYPE\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "---------\t----\t------\t-------\n")

	for _, result := range results {
		status := result.Status
		message := result.Message
		if result.Error != "" {
			message = result.Error
		}

		switch result.Status {
		case "healthy":
			status = "✓ " + status
		case "error":
			status = "✗ " + status
		default:
			status = "? " + status
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Name, result.Type, status, message)
	}

	_ = w.Flush()

	if verbose {
		for _, result := range results {
			if result.Status == "error" && len(result.Suggestions) > 0 {
				fmt.Printf("\n%s (%s) suggestions:\n", result.Name, result.Type)
				for _, suggestion := range result.Suggestions {
					fmt.Printf("  • %s\n", suggestion)
				}
			}
		}
	}
}

// getConnectorSuggestions returns helpful suggestions for connector errors.
func getConnectorSuggestions(connectorType string, err error) []string {
	msg := err.Error()
	suggestions := make([]string, 0)

	switch connectorType {
	case "aws.secretsmanager", "aws.ssm":
		suggestions = append(suggestions, "Configure AWS credentials via CLI, env vars, or IAM roles")
		if strings.Contains(msg, "credentials") || strings.Contains(msg, "authentication") {
			suggestions = append(suggestions, "Run: aws configure")
			suggestions = append(suggestions, "Verify with: aws sts get-caller-identity")
		}
		if strings.Contains(msg, "region") {
			suggestions = append(suggestions, "Set AWS_REGION or configure region in secretwire.yaml")
		}

	case "gcp.secretmanager":
		suggestions = append(suggestions, "Authenticate with: gcloud auth application-default login")
		if strings.Contains(msg, "project") {
			suggestions = append(suggestions, "Set project_id in secretwire.yaml or GOOGLE_CLOUD_PROJECT")
		}

	case "azure.keyvault":
		suggestions = append(suggestions, "Authenticate with: az login")
		suggestions = append(suggestions, "Or set tenant_id, client_id, and client_secret in secretwire.yaml")

	case "akeyless":
		suggestions = append(suggestions, "Check access_id and access_key in secretwire.yaml")

	case "file":
		suggestions = append(suggestions, "Check that the root directory exists and is readable")

	case "keyring":
		suggestions = append(suggestions, "Ensure a keyring service is running (Keychain, Secret Service)")

	default:
		suggestions = append(suggestions, "Verify connector configuration in secretwire.yaml")
	}

	return suggestions
}
