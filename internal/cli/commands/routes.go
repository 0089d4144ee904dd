package commands

import (
	"github.com/spf13/cobra"

	"github.com/conduit-lang/delivery/internal/api"
	"github.com/conduit-lang/delivery/internal/cli/ui"
)

// NewRoutesCommand creates the routes command
func NewRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the HTTP routes served by the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			r := api.NewRouter(api.Config{APIPrefix: cfg.Server.APIPrefix})

			table := ui.NewTable(cmd.OutOrStdout(), "METHOD", "PATTERN", "NAME")
			for _, route := range r.Routes() {
				table.AddRow(route.Method, route.Pattern, route.Name)
			}
			table.Render()
			return nil
		},
	}
}
