package commands

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/delivery/internal/cli/ui"
	"github.com/conduit-lang/delivery/internal/content"
)

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	var (
		truncate bool
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load content from a YAML fixture file",
		Long: `Load content nodes from a YAML fixture file into the configured database.

Existing nodes with the same key are updated. Use --truncate to remove all
content first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open fixtures: %w", err)
			}
			defer f.Close()

			nodes, err := content.LoadFixtures(f)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return err
			}

			if truncate {
				if !yes {
					confirmed := false
					prompt := &survey.Confirm{
						Message: "Remove all existing content before seeding?",
						Default: false,
					}
					if err := survey.AskOne(prompt, &confirmed); err != nil {
						return err
					}
					if !confirmed {
						ui.Warn(out, "Seeding cancelled")
						return nil
					}
				}
				if err := st.Truncate(ctx); err != nil {
					return err
				}
				ui.Info(out, "Removed existing content")
			}

			if err := st.Save(ctx, nodes...); err != nil {
				return err
			}
			ui.Success(out, "Seeded %d nodes from %s", len(nodes), args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&truncate, "truncate", false, "Remove all content before seeding")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
