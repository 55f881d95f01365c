package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/secretwire/internal/emit"
	"github.com/systmms/secretwire/internal/engine"
	"github.com/systmms/secretwire/internal/metrics"
)

func NewResolveCommand(opts *Options) *cobra.Command {
	var (
		outDir       string
		concurrency  int
		allowPartial bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve secrets and write manifests and unit patches",
		Long: `Resolve runs one resolution pass: it fetches every referenced secret
field from its connector, materializes Secret manifests, and plans the
per-unit injection fragments. Manifests land in <out>/secrets/ and unit
patches in <out>/units/.

A failing secret does not abort the pass; its requests are reported as
diagnostics while every other secret resolves normally. Output is only
written when the pass is clean, unless --allow-partial is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger()

			_, reg, set, err := opts.build()
			if err != nil {
				return err
			}
			logger.Debug("Loaded %d requests from %s", set.Len(), opts.Path)

			engOpts := []engine.Option{engine.WithLogger(logger)}
			if concurrency > 0 {
				engOpts = append(engOpts, engine.WithConcurrency(concurrency))
			}
			eng := engine.New(reg, engOpts...)
			result, err := eng.Resolve(cmd.Context(), set)
			if err != nil {
				return fmt.Errorf("resolution aborted: %w", err)
			}

			for _, d := range result.Diagnostics {
				logger.Error("%s", d)
			}

			if opts.Metrics {
				if err := metrics.Dump(cmd.OutOrStdout()); err != nil {
					logger.Warn("Failed to print metrics: %v", err)
				}
			}

			if !result.OK && !allowPartial {
				return fmt.Errorf("resolution finished with %d diagnostics, nothing written (use --allow-partial to write what resolved)", len(result.Diagnostics))
			}

			if err := emit.Write(result, outDir); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			fragments := 0
			for _, unit := range result.Units {
				fragments += len(result.Plans[unit])
			}
			logger.Info("Wrote %d secret manifest(s) and %d unit patch(es) (%d fragments) to %s",
				len(result.Resources), len(result.Units), fragments, outDir)

			if !result.OK {
				return fmt.Errorf("resolution finished with %d diagnostics", len(result.Diagnostics))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "secretwire-out", "Output directory")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max concurrent secret fetches (0 = default)")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "Write successfully resolved secrets even when diagnostics occurred")

	return cmd
}
