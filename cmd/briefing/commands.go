package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"morningbrief/app"
	"morningbrief/calendar"
	"morningbrief/config"
	"morningbrief/delivery"
	"morningbrief/logging"
	"morningbrief/tui"
	"morningbrief/types"
)

// setup loads configuration and the logger shared by every command
func setup(cmd *cobra.Command, quietConsole bool) (*config.Config, *slog.Logger, func() error, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	lc := logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Dir: cfg.Logging.Dir}
	if quietConsole {
		// the TUI owns the terminal; logs go to the file only
		lc.Console = io.Discard
	}
	logger, closeFn, err := logging.New(lc, time.Now())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeFn, nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build one briefing and deliver it",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			useTUI, _ := cmd.Flags().GetBool("tui")

			cfg, logger, closeLog, err := setup(cmd, useTUI)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.Build(cmd.Context(), cfg, dryRun, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if useTUI {
				src := tui.SourceFunc(func(ctx context.Context) (*types.Briefing, error) {
					report, err := a.Orchestrator.RunOnce(ctx)
					if report == nil {
						return nil, err
					}
					return report.Briefing, err
				})
				_, err := tea.NewProgram(tui.NewModel(cmd.Context(), src), tea.WithAltScreen()).Run()
				return err
			}

			report, err := a.Orchestrator.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd, report.Briefing, cfg, dryRun)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Write the briefing to the output directory instead of delivering it")
	cmd.Flags().Bool("tui", false, "Show the briefing in an interactive terminal viewer")
	return cmd
}

func printSummary(cmd *cobra.Command, b *types.Briefing, cfg *config.Config, dryRun bool) {
	out := cmd.OutOrStdout()
	d := b.Diagnostics
	fmt.Fprintf(out, "Briefing %s: %d articles (%d summarized), weather=%t, calendar=%t\n",
		b.RunID, len(b.Articles), d.Summarized, d.WeatherAvailable, d.CalendarAvailable)
	if d.Fatal != "" {
		fmt.Fprintf(out, "News unavailable: %s\n", d.Fatal)
	}
	if dryRun || cfg.Delivery.Mode == config.DeliveryFile {
		fmt.Fprintf(out, "Written to %s\n", filepath.Join(cfg.Delivery.OutputDir, delivery.FileName(b)))
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, daily schedule and run-request consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.Build(cmd.Context(), cfg, false, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Trigger a run on a briefing service and view the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			_, err := tea.NewProgram(tui.NewModel(cmd.Context(), tui.NewClient(server)), tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringP("server", "s", "http://localhost"+config.DefaultServerAddr, "Briefing service URL")
	return cmd
}

func feedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List built-in feed presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, key := range config.PresetKeys() {
				f := config.FeedPresets[key]
				fmt.Fprintf(out, "  %-5s %-28s %s\n", key, f.Name, f.URL)
			}
			return nil
		},
	}
}

func calendarAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar-auth",
		Short: "Authorize Google Calendar access and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			// credentials only; the rest of the config may not be valid yet
			cfg, err := loadLenient(path)
			if err != nil {
				return err
			}
			session, err := calendar.NewSession(cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile)
			if err != nil {
				return err
			}
			return session.Authorize(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func loadLenient(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("BRIEFING_CONFIG")
	}
	if path == "" {
		path = "config.yaml"
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Parse(nil)
		}
		return nil, err
	}
	return config.Parse(raw)
}
