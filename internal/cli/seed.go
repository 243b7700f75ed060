package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/devure/internal/app"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/scheduler"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a seed YAML file once, skipping slugs already stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), func(rt *app.Runtime) error {
				path := file
				if path == "" {
					path = rt.Config.SeedFile
				}
				if path == "" {
					return errors.New("no seed file: pass --file or set DEVURE_SEED_FILE")
				}

				importer := scheduler.NewSeedImporter(path, rt.Content, rt.Metrics, rt.Logger, nil)
				report, err := importer.Import(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, kind := range domain.Kinds {
					_, _ = fmt.Fprintf(out, "%-9s created=%d skipped=%d failed=%d\n",
						kind.Plural(), report.Created[kind], report.Skipped[kind], report.Failed[kind])
				}
				if _, _, failed := report.Total(); failed > 0 {
					return fmt.Errorf("%d seed entries failed", failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (default $DEVURE_SEED_FILE)")
	return cmd
}
