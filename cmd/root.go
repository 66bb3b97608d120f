package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/simulator"
	"github.com/chrisdamba/deliverysim/internal/stats"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	forceWeather string
	logEvents    bool
)

var rootCmd = &cobra.Command{
	Use:   "deliverysim",
	Short: "Simulates couriers delivering restaurant orders under changing weather",
	Long: `deliverysim runs a discrete-time simulation of a delivery platform: orders
spawn at restaurants, are priced with distance, surge and weather components,
and are dispatched to drone and biker couriers whose speed and accident risk
depend on the current weather regime. Events can be written to the console,
files (json, csv, parquet, optionally on S3), Kafka or PostgreSQL.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		logger, closeLog, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, logger, cmd.ErrOrStderr())
	},
}

func run(ctx context.Context, cfg *models.Config, logger *slog.Logger, progress io.Writer) error {
	sim, err := simulator.NewSimulator(cfg,
		simulator.WithLogger(logger),
		simulator.WithProgressWriter(progress),
	)
	if err != nil {
		return fmt.Errorf("error creating simulator: %w", err)
	}

	if forceWeather != "" && !sim.ForceWeather(forceWeather) {
		logger.WarnContext(ctx, "ignoring unknown weather regime", "weather", forceWeather)
	}
	if logEvents {
		sim.Subscribe(stats.NewEventLogger(logger))
	}

	out, err := simulator.NewOutputDestination(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("error creating output destination: %w", err)
	}
	var sink *simulator.EventSink
	if out != nil {
		sink = simulator.NewEventSink(out, sim.RunID, cfg, logger)
		sim.Subscribe(sink)
	}

	runErr := sim.Run(ctx)

	if sink != nil {
		if err := sink.Close(); err != nil {
			logger.ErrorContext(ctx, "error closing output", "error", err)
		}
		logger.InfoContext(ctx, "events written", "written", sink.Written, "failures", sink.Failures)
	}
	if runErr != nil {
		return runErr
	}

	if cfg.Database.Enabled {
		// the run context may already be cancelled by an interrupt
		if err := persistRun(context.WithoutCancel(ctx), cfg, sim, logger); err != nil {
			return fmt.Errorf("error persisting run: %w", err)
		}
	}
	return nil
}

func newLogger(cfg *models.Config) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	flags := rootCmd.Flags()
	flags.Int64("seed", 0, "Random seed for simulation (0 picks one from the clock)")
	flags.Int("steps", 1000, "Number of steps to simulate")
	flags.Bool("continuous", false, "Run until interrupted instead of a fixed number of steps")
	flags.Int("couriers", 10, "Number of couriers")
	flags.Int("restaurants", 5, "Number of restaurants")
	flags.Float64("spawn-probability", 0.3, "Probability that a step spawns an order")
	flags.String("weather", "clear", "Initial weather regime")
	flags.StringVar(&forceWeather, "force-weather", "", "Force a weather regime before the first step")
	flags.Duration("realtime-interval", 0, "Wall-clock delay between steps")
	flags.Int("progress-interval", 100, "Log progress every N steps (0 disables)")
	flags.Bool("progress", false, "Draw a progress bar for bounded runs")
	flags.String("output", models.OutputConsole, "Output destination: console, file, kafka, postgres or none")
	flags.String("output-format", "json", "File output format: json, csv or parquet")
	flags.String("output-path", "output", "Base path for file output")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.BoolVar(&logEvents, "log-events", false, "Log every simulation event")

	bindFlags(map[string]string{
		"seed":              "seed",
		"steps":             "steps",
		"continuous":        "continuous",
		"couriers":          "num_couriers",
		"restaurants":       "num_restaurants",
		"spawn-probability": "spawn_probability",
		"weather":           "initial_weather",
		"realtime-interval": "realtime_interval",
		"progress-interval": "progress_interval",
		"progress":          "show_progress_bar",
		"output":            "output_destination",
		"output-format":     "output_format",
		"output-path":       "output_path",
		"kafka-broker-list": "kafka_broker_list",
		"log-file":          "log_file",
		"log-level":         "log_level",
	})
}

func bindFlags(keys map[string]string) {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, rootCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

func initConfig() {
	// a missing .env is fine; anything else is worth reporting
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error loading .env file:", err)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
