// Package cmd defines and implements the CLI commands for the bulkcrawl executable.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	logJSON bool
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulkcrawl",
		Short: "Safely submit URL lists to a crawler service",
		Long: `bulkcrawl reads a file of URLs, filters out ones that are unsafe or
useless to crawl (auth pages, search engines, localhost), spreads the
remainder across domains, and submits them to the crawler API at a
controlled rate. Progress is saved next to the input file so an
interrupted run resumes where it left off.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bulk_crawl_config.{json,yaml})")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs instead of console output")

	cmd.AddCommand(newSubmitCmd())

	return cmd
}

// Execute is the main entry point. A SIGINT or SIGTERM cancels the run
// between submissions; the progress log stays valid either way.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
