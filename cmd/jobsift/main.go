package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/calebhart/jobsift/internal/config"
	"github.com/calebhart/jobsift/internal/ledger"
	"github.com/calebhart/jobsift/internal/watch"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"

	jsonOutput bool
	configPath string
)

func main() {
	// Local .env (Gemini key) is optional; the environment may already
	// be populated by the scheduler.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "jobsift",
		Short: "Job-application email pipeline",
		Long: `Jobsift drains Gmail conversations labeled for processing,
extracts job postings from each message (Gemini first, deterministic
patterns as fallback) and appends them exactly once to a Google Sheet,
relabeling each conversation when it is fully handled.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    buildDate,
				})
			} else {
				fmt.Printf("jobsift %s (%s, %s)\n", version, commit, buildDate)
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Execute one budgeted pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runPipeline(ctx, cfg)
		},
	})

	var interval time.Duration
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run on an interval, reloading config on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr := watch.NewManager(configPath, interval, runPipeline)
			return mgr.Run(ctx)
		},
	}
	serveCmd.Flags().DurationVar(&interval, "interval", time.Hour, "Time between runs")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "auth",
		Short: "Run the interactive OAuth flow and save the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return authorize(cmd.Context(), cfg)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate config, labels and sheet headers without processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return checkSetup(cmd.Context(), cfg)
		},
	})

	var statusCount int
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent runs from the local ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLedger()
			if err != nil {
				return err
			}
			defer l.Close()

			entries, err := l.RecentRuns(statusCount)
			if err != nil {
				return err
			}
			if jsonOutput {
				printJSON(entries)
				return nil
			}
			if len(entries) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %s  conv %d/%d  msgs %d  records %d  errors %d  [%s]",
					e.StartedAt.Format("2006-01-02 15:04"), e.ID[:8],
					e.ConversationsCompleted, e.ConversationsScanned,
					e.MessagesAttempted, e.RecordsWritten, e.ErrorRowsWritten,
					e.StoppedBy)
				if e.RunError != "" {
					line += "  error: " + e.RunError
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	statusCmd.Flags().IntVarP(&statusCount, "count", "n", 10, "Number of runs to show")
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openLedger() (*ledger.Ledger, error) {
	dataDir, err := config.GetDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return ledger.Open(filepath.Join(dataDir, "jobsift.db"))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
