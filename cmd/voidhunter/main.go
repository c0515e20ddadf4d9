package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/voidhunter/internal/capture"
	"github.com/npratt/voidhunter/internal/config"
	"github.com/npratt/voidhunter/internal/daemon"
	"github.com/npratt/voidhunter/internal/scanner"
	"github.com/npratt/voidhunter/internal/shutdown"
	"github.com/npratt/voidhunter/internal/tui"
)

var version = "dev"

// getDaemonClient creates a daemon client by finding daemon.json in the project.
func getDaemonClient() (*daemon.Client, error) {
	info, err := daemon.FindInfo("")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNoDaemon, err)
	}
	return daemon.NewClient(info.SocketPath), nil
}

// printControl reports an accepted control with the scanner's position at
// the time it was accepted.
func printControl(resp *daemon.ControlResponse) {
	fmt.Printf("%s requested (scanner %s, stage %s", resp.Method, resp.State, resp.Stage)
	if resp.Action != "" && resp.Action != "None" {
		fmt.Printf(", action %s", resp.Action)
	}
	fmt.Println(")")
}

// loadConfig loads configuration, applies explicitly set flags and resolves
// paths against the project root.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if flags.Changed(FlagReportFile) {
		cfg.Paths.Report = viper.GetString(FlagReportFile)
	}
	if flags.Changed(FlagSocketPath) {
		cfg.Paths.Socket = viper.GetString(FlagSocketPath)
	}
	if flags.Changed(FlagWindow) {
		cfg.Capture.Window = viper.GetString(FlagWindow)
	}
	if flags.Changed(FlagMinInterval) {
		cfg.Scan.MinInterval = viper.GetDuration(FlagMinInterval)
	}
	if flags.Changed(FlagMetricsListen) {
		cfg.Metrics.Listen = viper.GetString(FlagMetricsListen)
	}
	if flags.Changed(FlagLogTicks) {
		cfg.Scan.LogTicks = viper.GetBool(FlagLogTicks)
	}

	projectRoot := daemon.FindProjectRoot("")
	cfg.Paths, err = daemon.ResolvePaths(cfg.Paths, projectRoot)
	if err != nil {
		return nil, "", fmt.Errorf("resolve paths: %w", err)
	}
	return cfg, projectRoot, nil
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	viper.SetEnvPrefix("VOIDHUNTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "voidhunter",
		Short: "Track match progress and results from a running game",
		Long: `voidhunter watches the game window, reads the HUD and dialogs each tick,
and follows a match from agent pick through both halves to the result screen.

It records the tier, roster, clear time and restart count of every cycle and
reports the match total once two results are in.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}
		},
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .voidhunter/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Event log path")
	rootCmd.PersistentFlags().String(FlagReportFile, "", "Report file path")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for daemon control")
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("voidhunter %s\n", version)
		},
	}

	// Watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the game window and track the match",
		Long: `Capture the game window continuously and track the match.

With a terminal the live view is shown; otherwise voidhunter runs headless and
can be controlled with the status, pause, resume and stop commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tuiEnabled := viper.GetBool(FlagTUI)
			if !cmd.Flags().Changed(FlagTUI) {
				tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
			}

			cfg, projectRoot, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client := daemon.NewClient(cfg.Paths.Socket)
			if client.IsRunning() {
				return fmt.Errorf("already watching (socket: %s)", cfg.Paths.Socket)
			}

			infoPath := daemon.InfoPath(projectRoot)
			if err := os.MkdirAll(filepath.Dir(infoPath), 0755); err != nil {
				return fmt.Errorf("create %s directory: %w", config.ProjectConfigDir, err)
			}

			ctx := cmd.Context()
			p, err := newPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			scanLogger := logger
			if tuiEnabled {
				tuiLog, err := SetupTUILogger(filepath.Dir(cfg.Paths.Log), logLevel, cfg.LogRotation)
				if err != nil {
					return err
				}
				defer func() { _ = tuiLog.Close() }()
				scanLogger = tuiLog.Logger
				slog.SetDefault(scanLogger)
			}

			scanLogger.Info("voidhunter starting",
				"version", version,
				"window", cfg.Capture.Window,
				"log_file", cfg.Paths.Log,
				"report_file", cfg.Paths.Report,
				"tui", tuiEnabled,
			)

			bgCtx, bgCancel := context.WithCancel(ctx)
			defer bgCancel()

			if cfg.Metrics.Listen != "" {
				go func() {
					if err := p.recorder.Serve(bgCtx, cfg.Metrics.Listen, scanLogger); err != nil {
						scanLogger.Error("metrics server error", "error", err)
					}
				}()
			}

			box := capture.NewMailbox()
			src := capture.NewWindowSource(capture.WindowConfig{
				Name:   cfg.Capture.Window,
				Width:  cfg.Capture.Width,
				Height: cfg.Capture.Height,
			})
			feed := capture.NewFeed(src, box, capture.FeedConfig{
				Interval:      cfg.Capture.Interval,
				RetryInterval: cfg.Capture.RetryInterval,
			}, scanLogger)
			go func() { _ = feed.Run(bgCtx) }()

			sc := scanner.New(cfg, box, newClassifier(cfg), p.router, p.recorder, scanLogger)

			info := &daemon.Info{
				SocketPath: cfg.Paths.Socket,
				ReportPath: cfg.Paths.Report,
				LogPath:    cfg.Paths.Log,
				RunID:      sc.RunID(),
				StartTime:  time.Now(),
				PID:        os.Getpid(),
			}
			if err := daemon.WriteInfo(infoPath, info); err != nil {
				scanLogger.Warn("failed to write daemon info", "error", err)
			}
			defer func() { _ = daemon.RemoveInfo(infoPath) }()

			if tuiEnabled {
				tuiEvents := p.router.SubscribeBuffered(5000)
				tuiApp := tui.New(tuiEvents,
					tui.WithOnPause(sc.Pause),
					tui.WithOnResume(sc.Resume),
					tui.WithOnQuit(sc.Stop),
					tui.WithStatsGetter(sc),
				)

				scanDone := make(chan error, 1)
				go func() {
					scanDone <- sc.Run(bgCtx)
				}()

				tuiErr := tuiApp.Run()

				sc.Stop()
				if err := <-scanDone; err != nil {
					return err
				}
				return tuiErr
			}

			dmn := daemon.New(cfg.Paths.Socket, sc, logger)
			daemonCtx, daemonCancel := context.WithCancel(ctx)
			daemonDone := make(chan struct{})
			go func() {
				defer close(daemonDone)
				if err := dmn.Start(daemonCtx); err != nil {
					logger.Error("daemon server error", "error", err)
				}
			}()

			return shutdown.RunWithGracefulShutdown(
				ctx,
				logger,
				10*time.Second,
				func(runCtx context.Context) error {
					err := sc.Run(runCtx)
					daemonCancel()
					return err
				},
				func(shutdownCtx context.Context) error {
					sc.Stop()
					daemonCancel()
					<-daemonDone
					return nil
				},
			)
		},
	}
	watchCmd.Flags().Bool(FlagTUI, false, "Enable terminal UI (default: on when stdout is a terminal)")
	watchCmd.Flags().String(FlagWindow, "", "Name of the game window to capture")
	watchCmd.Flags().Duration(FlagMinInterval, 0, "Minimum time between ticks")
	watchCmd.Flags().String(FlagMetricsListen, "", "Address to serve Prometheus metrics on (e.g. :9090)")
	watchCmd.Flags().Bool(FlagLogTicks, false, "Write per-tick snapshots to the event log")
	watchCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	// Replay command
	replayCmd := &cobra.Command{
		Use:   "replay <dir>",
		Short: "Track a match from a directory of PNG frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool(FlagJSON)
			return runReplay(cmd.Context(), cfg, args[0], newClassifier(cfg), logger, cmd.OutOrStdout(), asJSON)
		},
	}
	replayCmd.Flags().Bool(FlagJSON, false, "Output the report as JSON")

	// Decode command
	decodeCmd := &cobra.Command{
		Use:   "decode <png>",
		Short: "Read the in-match clock from a full-frame screenshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(viper.GetViper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c, err := decodeClock(args[0], cfg.OCR.ClockThreshold)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool(FlagJSON); asJSON {
				data, err := json.Marshal(map[string]any{
					"clock":   c.String(),
					"seconds": c.TotalSeconds(),
				})
				if err != nil {
					return fmt.Errorf("marshal clock: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.String())
			return nil
		},
	}
	decodeCmd.Flags().Bool(FlagJSON, false, "Output as JSON")

	// Status command
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}

			status, err := client.Status()
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool(FlagJSON); asJSON {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal status: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Status: %s\n", status.Status)
			fmt.Printf("Run: %s\n", status.RunID)
			fmt.Printf("Stage: %s\n", status.Stage)
			if status.Action != "" && status.Action != "None" {
				fmt.Printf("Action: %s\n", status.Action)
			}
			if len(status.Visible) > 0 {
				fmt.Printf("Visible: %s\n", strings.Join(status.Visible, ", "))
			}
			fmt.Printf("Restarts: %d\n", status.Restarts)
			for i, r := range status.Results {
				fmt.Printf("Result %d: %s %s restarts=%d\n", i+1, r.Tier, r.Clock, r.Restarts)
			}
			if len(status.Results) > 0 {
				fmt.Printf("Total: %s\n", status.Total)
			}
			fmt.Printf("Uptime: %s\n", status.Uptime)
			fmt.Printf("Started: %s\n", status.StartTime)
			fmt.Printf("Stats:\n")
			fmt.Printf("  Ticks: %d\n", status.Stats.Ticks)
			fmt.Printf("  Frames skipped: %d\n", status.Stats.FramesSkipped)
			fmt.Printf("  Probe errors: %d\n", status.Stats.ProbeErrors)
			return nil
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause scanning",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			resp, err := client.Pause()
			if err != nil {
				return err
			}
			printControl(resp)
			return nil
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume scanning",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			resp, err := client.Resume()
			if err != nil {
				return err
			}
			printControl(resp)
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			resp, err := client.Stop()
			if err != nil {
				return err
			}
			printControl(resp)
			return nil
		},
	}

	// Events command
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "View recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			var logPath string
			if info, err := daemon.FindInfo(""); err == nil {
				logPath = info.LogPath
			} else {
				cfg, _, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				logPath = cfg.Paths.Log
			}

			count, _ := cmd.Flags().GetInt(FlagCount)
			if follow, _ := cmd.Flags().GetBool(FlagFollow); follow {
				return tailFollow(cmd.Context(), cmd.OutOrStdout(), logPath)
			}
			return tailLast(cmd.OutOrStdout(), logPath, count)
		},
	}
	eventsCmd.Flags().Bool(FlagFollow, false, "Follow event stream (like tail -f)")
	eventsCmd.Flags().Int(FlagCount, 20, "Number of recent events to show")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(eventsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
