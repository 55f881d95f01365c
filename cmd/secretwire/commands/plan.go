package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/secretwire/internal/inject"
	"github.com/systmms/secretwire/internal/registry"
	"github.com/systmms/secretwire/pkg/shape"
)

// plannedRequest is one row of the plan output. No secret value is ever
// fetched for a plan; Connector names the origin, not its content.
type plannedRequest struct {
	Unit      string `json:"unit"`
	Secret    string `json:"secret"`
	Field     string `json:"field"`
	Kind      string `json:"kind"`
	Target    string `json:"target"`
	Connector string `json:"connector"`
	Error     string `json:"error,omitempty"`
}

func NewPlanCommand(opts *Options) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what will be injected where (no values fetched)",
		Long: `Plan maps every injection request to its secret, field, injection
target, and origin connector without fetching a single value. Use it to
debug configuration before running resolve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, set, err := opts.build()
			if err != nil {
				return err
			}

			rows := planRequests(reg, set)

			if outputJSON {
				return outputPlanJSON(rows)
			}
			return outputPlanTable(rows)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

// planRequests checks each request against the registry the way the
// engine will, without touching any connector.
func planRequests(reg *registry.Registry, set *inject.Set) []plannedRequest {
	rows := make([]plannedRequest, 0, set.Len())

	for _, req := range set.Requests() {
		row := plannedRequest{
			Unit:   req.Unit,
			Secret: req.SecretName,
			Field:  req.FieldName,
			Kind:   string(req.Kind),
			Target: req.Options.Identity(req.Kind),
		}

		decl, ok := reg.Secret(req.SecretName)
		if !ok {
			row.Error = "secret is not declared"
			rows = append(rows, row)
			continue
		}
		row.Connector = decl.ConnectorID

		prov, ok := reg.Provider(decl.ProviderID)
		if !ok {
			row.Error = fmt.Sprintf("shape '%s' is not registered", decl.ProviderID)
			rows = append(rows, row)
			continue
		}

		spec, ok := shape.LookupField(prov.FieldSchema(), req.FieldName)
		if !ok {
			row.Error = fmt.Sprintf("shape '%s' has no field '%s'", decl.ProviderID, req.FieldName)
			rows = append(rows, row)
			continue
		}
		if !spec.Allows(req.Kind) {
			row.Error = fmt.Sprintf("field '%s' cannot be injected as %s", req.FieldName, req.Kind)
		}

		rows = append(rows, row)
	}
	return rows
}

func outputPlanJSON(rows []plannedRequest) error {
	errorCount := 0
	for _, row := range rows {
		if row.Error != "" {
			errorCount++
		}
	}

	output := map[string]interface{}{
		"requests": rows,
		"summary": map[string]interface{}{
			"total_requests": len(rows),
			"error_count":    errorCount,
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputPlanTable(rows []plannedRequest) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "UNIT\tSECRET\tFIELD\tKIND\tTARGET\tCONNECTOR\tSTATUS\n")
	_, _ = fmt.Fprintf(w, "----\t------\t-----\t----\t------\t---------\t------\n")

	errorCount := 0
	for _, row := range rows {
		status := "✓ OK"
		if row.Error != "" {
			status = "✗ " + row.Error
			errorCount++
		}

		connector := row.Connector
		if connector == "" {
			connector = "-"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Unit, row.Secret, row.Field, row.Kind, row.Target, connector, status)
	}

	_ = w.Flush()

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total requests: %d\n", len(rows))
	fmt.Printf("  Ready to resolve: %d\n", len(rows)-errorCount)

	if errorCount > 0 {
		fmt.Printf("  Errors: %d\n", errorCount)
		return fmt.Errorf("plan completed with %d errors", errorCount)
	}

	fmt.Printf("\n✓ All requests ready to resolve!\n")
	return nil
}
