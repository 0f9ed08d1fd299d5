// Package main provides the scenesplit binary entry point. SceneSplit turns
// a screenplay into a reviewable production breakdown: scenes, entities,
// schedule, budget, and crew, with a human review loop over every section.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/scenesplit/scenesplit/breakdown"
	"github.com/scenesplit/scenesplit/config"
	"github.com/scenesplit/scenesplit/scriptfile"
)

const (
	Version = "0.1.0"
	appName = "scenesplit"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Screenplay production breakdown engine",
		Long: `SceneSplit analyzes screenplays into production breakdowns.

A script goes through extraction, per-scene analysis, and aggregation into
schedule, budget, and crew views, then parks awaiting human review. Feedback
on any section resumes the workflow for a targeted revision cycle; approval
completes it. Every workflow checkpoint survives a process restart.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	loadApp := func(ctx context.Context) (*App, error) {
		logger := newLogger(logLevel)

		var cfg *config.Config
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
			if err == nil {
				err = cfg.Validate()
			}
		} else {
			cfg, err = config.NewLoader(logger).Load()
		}
		if err != nil {
			return nil, err
		}
		return NewApp(ctx, cfg, logger)
	}

	cmd.AddCommand(analyzeCmd(loadApp))
	cmd.AddCommand(resumeCmd(loadApp))
	cmd.AddCommand(statusCmd(loadApp))
	cmd.AddCommand(watchCmd(loadApp))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

type appLoader func(ctx context.Context) (*App, error)

func analyzeCmd(loadApp appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <path|glob>...",
		Short: "Analyze script files into production breakdowns",
		Long: `Analyze runs the full pipeline on each matched script file and prints the
resulting workflow state as JSON. Globs use doublestar syntax, so
'scripts/**/*.fountain' matches recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			paths, err := expandArgs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no script files matched %s", strings.Join(args, " "))
			}

			var failed int
			for _, path := range paths {
				state, err := app.Orchestrator().StartFromFile(ctx, path)
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
					continue
				}
				if err := printJSON(state); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scripts failed", failed, len(paths))
			}
			return nil
		},
	}
}

func resumeCmd(loadApp appLoader) *cobra.Command {
	var (
		approve   bool
		revisions []string
	)

	cmd := &cobra.Command{
		Use:   "resume <thread-id>",
		Short: "Apply review feedback to a parked workflow",
		Long: `Resume applies a review decision to a workflow awaiting review.

With --approve the breakdown is accepted and the workflow completes. Each
--revise flag requests a revision of one section, optionally with feedback:

  scenesplit resume script_ab12cd34 --revise budget="assume non-union rates"
  scenesplit resume script_ab12cd34 --revise scenes --revise crew
  scenesplit resume script_ab12cd34 --approve

Sections: scenes, characters, locations, props, budget, schedule, crew.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve && len(revisions) > 0 {
				return fmt.Errorf("--approve and --revise are mutually exclusive")
			}
			if !approve && len(revisions) == 0 {
				return fmt.Errorf("pass --approve or at least one --revise")
			}

			packet, err := buildPacket(revisions)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			state, err := app.Orchestrator().Resume(ctx, args[0], packet)
			if err != nil {
				return err
			}
			return printJSON(state)
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "Accept the breakdown and complete the workflow")
	cmd.Flags().StringArrayVar(&revisions, "revise", nil, "Section to revise, as section or section=feedback (repeatable)")
	return cmd
}

func statusCmd(loadApp appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "status <thread-id>",
		Short: "Print the current workflow state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			state, err := app.Orchestrator().GetState(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(state)
		},
	}
}

func watchCmd(loadApp appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a drop folder and analyze scripts as they arrive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			watchCfg := scriptfile.WatchConfig{
				Dir:        app.cfg.Watch.Dir,
				Debounce:   app.cfg.Watch.Debounce,
				Extensions: app.cfg.Watch.Extensions,
			}
			if len(args) == 1 {
				watchCfg.Dir = args[0]
			}

			watcher, err := scriptfile.NewWatcher(watchCfg, app.logger)
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			for path := range watcher.Events() {
				state, err := app.Orchestrator().StartFromFile(ctx, path)
				if err != nil {
					app.logger.Error("Script analysis failed",
						"path", path,
						"error", err)
					continue
				}
				if err := printJSON(state); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// expandArgs resolves each argument as a doublestar glob, falling back to a
// literal path when the pattern has no matches but the file exists.
func expandArgs(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(arg); statErr == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if !seen[m] && scriptfile.IsSupported(m) {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

// buildPacket converts --revise flags into a feedback packet.
func buildPacket(revisions []string) (*breakdown.FeedbackPacket, error) {
	packet := &breakdown.FeedbackPacket{
		Feedback:      make(map[breakdown.Section]string),
		NeedsRevision: make(map[breakdown.Section]bool),
	}
	for _, rev := range revisions {
		name, feedback, _ := strings.Cut(rev, "=")
		section, err := breakdown.ParseSection(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		packet.NeedsRevision[section] = true
		if feedback != "" {
			packet.Feedback[section] = feedback
		}
	}
	return packet, nil
}
