// Package commands implements the delivery command line interface
package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/delivery/internal/cli/config"
	"github.com/conduit-lang/delivery/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "delivery",
		Short: "Headless content delivery API server",
		Long: color.CyanString(`Delivery - Headless Content Delivery API

Serves a published content tree as JSON. Nodes are looked up by key or route
path, property editor values are converted to API values, and content picker
references can be expanded inline with ?expand=.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file (default ./delivery.yaml)")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewRenderCommand())
	rootCmd.AddCommand(NewRoutesCommand())
	rootCmd.AddCommand(NewHashKeyCommand())
	rootCmd.AddCommand(NewMemberTokenCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			kv := ui.NewKeyValues(cmd.OutOrStdout())
			kv.Add("Delivery version", Version)
			kv.Add("Git commit", GitCommit)
			kv.Add("Build date", BuildDate)
			kv.Add("Go version", goVer)
			kv.Render()
		},
	}
}

// loadConfig reads the file named by --config, or the default location
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		ui.Error(rootCmd.ErrOrStderr(), ui.ErrorOptions{
			Problem: err.Error(),
			Hints:   []string{"Run 'delivery --help' for usage"},
		})
		return err
	}
	return nil
}
