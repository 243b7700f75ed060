package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/devure/internal/app"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/scheduler"
)

func newSweepCmd() *cobra.Command {
	var (
		dryRun bool
		grace  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete body blobs no record points to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), func(rt *app.Runtime) error {
				if !cmd.Flags().Changed("grace") {
					grace = rt.Config.SweepGrace
				}

				sweeper := scheduler.NewOrphanSweeper(rt.Services(), rt.Metrics, rt.Logger, 0, grace, dryRun)
				report, err := sweeper.Sweep(cmd.Context())

				out := cmd.OutOrStdout()
				verb := "deleted"
				if dryRun {
					verb = "would delete"
				}
				for _, kind := range domain.Kinds {
					for _, key := range report.Orphans[kind] {
						_, _ = fmt.Fprintf(out, "%s %s\n", verb, key)
					}
				}
				_, _ = fmt.Fprintf(out, "%d orphan(s) %s\n", report.Count(), verb)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list orphans without deleting them")
	cmd.Flags().DurationVar(&grace, "grace", scheduler.DefaultSweepGrace, "minimum blob age before it is swept")
	return cmd
}
