package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/swarm-homepage/internal/app"
	"github.com/MrSnakeDoc/swarm-homepage/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swarm-homepage",
		Short: "Discover proxied services and publish them as a Homepage dashboard",
		Long: `swarm-homepage discovers services from the Docker socket (falling back to
the Traefik API), turns their labels into dashboard entries and serves them
over HTTP. Configuration is read from the environment.

Running without a subcommand is the same as "serve".`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.New().Run()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(discoverCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("❌ swarm-homepage failed: %v", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh loop and the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.New().Run()
		},
	}
}

func discoverCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery cycle and print the services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Discover(cmd.Context(), cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", app.FormatYAML, "Output format: yaml (Homepage services.yaml) or json")
	return cmd
}
