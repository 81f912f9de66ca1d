package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "briefing",
		Short:   "Morning briefing: weather, calendar and summarized news",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default $BRIEFING_CONFIG or config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(feedsCmd())
	rootCmd.AddCommand(calendarAuthCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
