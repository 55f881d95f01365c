package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/secretwire/internal/connectors"
)

func NewConnectorsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connectors",
		Short: "List available connector types",
		Long: `Display the built-in connector types and, when a config file is
present, the connectors it configures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			factory := connectors.NewFactoryRegistry()

			fmt.Println("Built-in Connector Types:")
			fmt.Println("=========================")

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "TYPE\tDESCRIPTION\n")
			_, _ = fmt.Fprintf(w, "----\t-----------\n")

			for _, connectorType := range factory.SupportedTypes() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", connectorType, getConnectorDescription(connectorType))
			}
			_ = w.Flush()

			// Show configured connectors if a config file is readable.
			def, err := opts.loadDefinition()
			if err != nil {
				return nil
			}

			fmt.Println("\nConfigured Connectors:")
			fmt.Println("======================")

			if len(def.Connectors) == 0 {
				fmt.Println("No connectors configured")
				return nil
			}

			w2 := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w2, "NAME\tTYPE\tSTATUS\n")
			_, _ = fmt.Fprintf(w2, "----\t----\t------\n")

			for _, name := range sortedKeys(def.Connectors) {
				cfg := def.Connectors[name]
				status := "configured"
				if !factory.IsSupported(cfg.Type) {
					status = "unsupported"
				}
				_, _ = fmt.Fprintf(w2, "%s\t%s\t%s\n", name, cfg.Type, status)
			}
			_ = w2.Flush()

			return nil
		},
	}

	return cmd
}

// getConnectorDescription returns a description for a connector type.
func getConnectorDescription(connectorType string) string {
	descriptions := map[string]string{
		"env":                "Environment variables of the calling process",
		"static":             "Static literal values for testing",
		"file":               "Plain files under a root directory",
		"keyring":            "OS native keychain (macOS Keychain, Linux Secret Service)",
		"aws.secretsmanager": "AWS Secrets Manager via SDK",
		"aws.ssm":            "AWS Systems Manager Parameter Store",
		"gcp.secretmanager":  "Google Cloud Secret Manager",
		"azure.keyvault":     "Azure Key Vault",
		"akeyless":           "Akeyless zero-knowledge secret management",
	}

	if desc, exists := descriptions[connectorType]; exists {
		return desc
	}
	return "No description available"
}
