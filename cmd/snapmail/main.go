// Package main is the entry point for the snapmail CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapmail/snapmail/internal/core"

	// Modules register themselves at init time.
	_ "github.com/snapmail/snapmail/internal/capture"
	_ "github.com/snapmail/snapmail/internal/gateway"
	_ "github.com/snapmail/snapmail/internal/heartbeat"
	_ "github.com/snapmail/snapmail/internal/journal"
	_ "github.com/snapmail/snapmail/internal/notify"
	_ "github.com/snapmail/snapmail/internal/schedule"
	_ "github.com/snapmail/snapmail/internal/store"
	_ "github.com/snapmail/snapmail/internal/tracing"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "snapmail",
		Short:         "Daily portal screenshot capture and delivery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), userCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("snapmail %s (commit: %s, built: %s)\n", version, commit, date)
			mods := core.GetModules()
			if len(mods) == 0 {
				fmt.Println("\nNo compiled modules.")
				return
			}
			fmt.Println("\nCompiled modules:")
			for _, mod := range mods {
				fmt.Printf("  %s\n", mod.ID)
			}
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			app, ids, err := buildApp(args[0])
			if err != nil {
				return err
			}
			defer app.Stop()

			fmt.Printf("Configuration OK (%d modules)\n", len(ids))
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	})
	return cmd
}
