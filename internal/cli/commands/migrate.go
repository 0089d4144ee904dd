package commands

import (
	"github.com/spf13/cobra"

	"github.com/conduit-lang/delivery/internal/cli/ui"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the content tables",
		Long:  "Create the content node and property tables in the configured database. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			ui.Success(cmd.OutOrStdout(), "Content schema is up to date (%s)", cfg.Database.Driver)
			return nil
		},
	}
}
