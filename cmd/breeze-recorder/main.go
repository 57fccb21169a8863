package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/breeze-rmm/recorder/internal/capture"
	"github.com/breeze-rmm/recorder/internal/config"
	"github.com/breeze-rmm/recorder/internal/database"
	"github.com/breeze-rmm/recorder/internal/health"
	"github.com/breeze-rmm/recorder/internal/logging"
	"github.com/breeze-rmm/recorder/internal/recorder"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
)

var (
	version    = "0.1.0"
	cfgFile    string
	envFile    string
	outputDir  string
	intervalMs int
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "breeze-recorder",
	Short: "Breeze screen recorder",
	Long:  `Breeze Recorder - periodically snapshots every attached display and keeps the frames that changed`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecorder()
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Capture every display once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show effective config, displays and database state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStatus(cmd.OutOrStdout())
	},
}

var saveConfigCmd = &cobra.Command{
	Use:   "save-config [path]",
	Short: "Write the effective config (file, env and flags merged) as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveConfig(cmd.OutOrStdout(), args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Breeze Recorder v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/breeze/recorder.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "directory for snapshots (overrides output_dir)")
	rootCmd.PersistentFlags().IntVar(&intervalMs, "interval", 0, "capture interval in milliseconds (overrides interval_ms)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(saveConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file and flag overrides, validates the
// result and initializes logging on logOut (nil = stdout). Nothing should log
// before this returns.
func loadConfig(logOut io.Writer) (*config.Config, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if intervalMs != 0 {
		cfg.IntervalMs = intervalMs
	}

	if err := logging.Setup(logging.Options{
		Format:     cfg.LogFormat,
		Output:     logOut,
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	result := cfg.ValidateTiered()
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("invalid config", logging.KeyError, err)
		}
		return nil, fmt.Errorf("config has %d fatal error(s)", len(result.Fatals))
	}
	return cfg, nil
}

func newRecorder(cfg *config.Config) (*recorder.Recorder, error) {
	enc, err := recorder.NewEncoder(cfg.Codec, cfg.Quality)
	if err != nil {
		return nil, err
	}
	return recorder.New(recorder.Options{
		Capturer:  capture.NewScreenCapturer(cfg.Displays),
		Encoder:   enc,
		Persister: recorder.NewPersister(afero.NewOsFs(), cfg.OutputDir),
		Policy:    recorder.SizingPolicy{Divisor: cfg.WidthDivisor, MinWidth: cfg.MinWidth},
		Interval:  cfg.Interval(),
		Logger:    logging.L("recorder"),
	})
}

// bootstrapDatabase runs the independent database check. Recording does not
// need it, so failures are logged only.
func bootstrapDatabase(ctx context.Context, cfg *config.Config) {
	if cfg.DatabaseURL == "" {
		log.Warn("database_url not set, skipping database bootstrap")
		return
	}
	if err := database.EnsureReady(ctx, cfg.DatabaseURL); err != nil {
		log.Error("database bootstrap failed", logging.KeyError, err)
	}
}

func runRecorder() error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	defer logging.Close()

	log.Info("starting Breeze Recorder", "version", version, "outputDir", cfg.OutputDir, "interval", cfg.Interval().String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrapDatabase(ctx, cfg)

	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}

	if err := rec.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("recorder stopped unexpectedly", logging.KeyError, err)
	}

	log.Info("shutting down recorder")
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout())
	defer cancel()
	rec.Shutdown(drainCtx)

	cycles, persisted, failures := rec.Stats()
	total, skipped := rec.Store().Stats()
	log.Info("recorder stopped",
		"cycles", cycles,
		"persisted", persisted,
		"failures", failures,
		"comparisons", total,
		"unchanged", skipped,
		"health", rec.Health().Summary())
	return nil
}

func runOnce() error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	defer logging.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	bootstrapDatabase(ctx, cfg)

	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}
	res, err := rec.RunCycle(ctx)
	if err != nil {
		return err
	}
	for _, art := range res.Persisted {
		fmt.Println(art.Path)
	}
	for _, c := range rec.Health().All() {
		if c.Status != health.Healthy {
			log.Warn("display not healthy", "target", c.Name, "status", string(c.Status), "message", c.Message)
		}
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d display(s) failed, first: %w", len(res.Errors), res.Errors[0])
	}
	return nil
}

// saveConfig writes the merged config to path, or to the platform default
// location when no path is given.
func saveConfig(w io.Writer, args []string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	defer logging.Close()

	if len(args) == 0 {
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(w, "config written to %s\n", config.DefaultPath())
		return nil
	}
	if err := config.SaveTo(cfg, args[0]); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(w, "config written to %s\n", args[0])
	return nil
}
