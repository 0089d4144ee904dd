package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/delivery/internal/delivery"
	"github.com/conduit-lang/delivery/internal/expansion"
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	var (
		expand    string
		startItem string
		preview   bool
	)

	cmd := &cobra.Command{
		Use:   "render <key-or-path>",
		Short: "Print the API representation of a node",
		Long: `Render a node straight from the database the way the item endpoint would,
without going through HTTP. Protected content is rendered as for an
anonymous visitor.

Examples:
  delivery render /about/team
  delivery render 7c0e9a41-0000-4000-8000-000000000001 --expand all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			access := delivery.Access{Preview: preview}
			n, err := delivery.NewLocator(st, access).ByIDOrPath(ctx, startItem, args[0])
			if err != nil {
				return err
			}

			machine := expansion.NewMachine(expansion.ParseDirective(expand))
			doc, err := delivery.NewRenderer(st, machine, access,
				delivery.WithMaxDepth(cfg.Delivery.MaxDepth),
			).Render(ctx, n)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}

	cmd.Flags().StringVarP(&expand, "expand", "e", "", `Expansion directive: "all" or "property:alias1,alias2"`)
	cmd.Flags().StringVar(&startItem, "start-item", "", "Root key or URL segment that paths are relative to")
	cmd.Flags().BoolVar(&preview, "preview", false, "Include unpublished content")

	return cmd
}
