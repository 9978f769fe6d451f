package main

import (
	"fmt"
	"os"
	"time"

	"eb-go/internal/app"
	"eb-go/internal/config"
	"eb-go/internal/engine"
	"eb-go/internal/fs"
	"eb-go/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Scan", "Backup").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// printProgress reports pass progress on stdout, one line per entry.
var printProgress = engine.ProgressFunc(func(percent int, message string) {
	fmt.Printf("[%3d%%] %s\n", percent, message)
})

var rootCmd = &cobra.Command{
	Use:   "eb",
	Short: "Mirror a filesystem subtree with content deduplication",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		fmt.Println("Set [source] root and [destination] root before scanning.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Host ID:        %s\n", cfg.HostID)
		fmt.Printf("Base Dir:       %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:        %s\n", cfg.LogDir)
		fmt.Printf("Source:         %s\n", cfg.Source.Root)
		fmt.Printf("Destination:    %s\n", cfg.Destination.Root)
		fmt.Printf("Size Threshold: %d bytes\n", cfg.Dedup.SizeThreshold)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the source root into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		reset, _ := cmd.Flags().GetBool("reset")

		a, err := newApp("Scan")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.Scan(cmd.Context(), reset)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		fmt.Printf("Cataloged %d entries\n", count)
		return nil
	},
}

// dedup command
var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Detect duplicate file content in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetInt64("threshold")

		a, err := newApp("FindDuplicates")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.FindDuplicates(cmd.Context(), threshold, printProgress)
		if err != nil {
			return fmt.Errorf("duplicate detection failed: %w", err)
		}

		fmt.Printf("Hashed %d file(s), found %d duplicate(s), %d failure(s)\n",
			stats.Hashed, stats.Duplicates, stats.Failed)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Mirror pending entries to the destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Backup(cmd.Context(), printProgress)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Backed up %d entries: %d failed, %d deduplicated as links\n",
			summary.Succeeded, summary.Failed, summary.Linked)
		return nil
	},
}

// resume command
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Re-submit entries left unfinished by a previous backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Resume")
		if err != nil {
			return err
		}
		defer a.Close()

		unfinished, err := a.HasUnfinished()
		if err != nil {
			return err
		}
		if !unfinished {
			fmt.Println("Nothing to resume.")
			return nil
		}

		summary, err := a.Resume(cmd.Context(), printProgress)
		if err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}

		fmt.Printf("Resumed %d entries: %d failed, %d deduplicated as links\n",
			summary.Succeeded, summary.Failed, summary.Linked)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show entry counts per backup status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.StatusCounts()
		if err != nil {
			return err
		}

		for _, st := range []model.Status{
			model.StatusPending, model.StatusSelected, model.StatusCopying,
			model.StatusSuccess, model.StatusFailed,
		} {
			fmt.Printf("%-10s %d\n", st, counts[st])
		}

		unfinished, err := a.HasUnfinished()
		if err != nil {
			return err
		}
		if unfinished {
			fmt.Println("\nA previous backup left unfinished entries; run 'eb resume' or 'eb reset'.")
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
			)
		}
		return nil
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the catalog for a fresh scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Reset")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		fmt.Println("Catalog cleared.")
		return nil
	},
}

// free command
var freeCmd = &cobra.Command{
	Use:   "free [PATH]",
	Short: "Show free space at the destination (or a given path)",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return err
		}

		target := cfg.Destination.Root
		if len(args) > 0 {
			target = args[0]
		}

		free, err := fs.FreeSpace(target)
		if err != nil {
			return fmt.Errorf("checking free space: %w", err)
		}

		fmt.Printf("%d bytes free at %s\n", free, target)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	scanCmd.Flags().Bool("reset", false, "Clear the catalog before scanning")
	dedupCmd.Flags().Int64P("threshold", "t", 0, "Size threshold in bytes (default from config)")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(dedupCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(freeCmd)
}
