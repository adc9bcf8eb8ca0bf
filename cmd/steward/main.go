package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/steward/internal/app"
	"github.com/agenthands/steward/internal/config"
	"github.com/agenthands/steward/internal/logging"
)

const version = "0.1.0"

var (
	configPath string
	debug      bool

	svc    *app.App
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "steward",
	Short:   "Profile, clean, map and migrate tabular data",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		cfg, err := config.LoadOrDefault(configPath)
		if err == nil {
			err = cfg.ApplyEnv()
		}
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			fail("invalid configuration", err)
		}
		if debug {
			cfg.Logging.Debug = true
		}

		if logger, err = logging.New(cfg.Logging.Debug); err != nil {
			fail("failed to create logger", err)
		}
		svc = app.Build(context.Background(), cfg, logger)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

func init() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.toml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to the TOML configuration")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// exit is replaced in tests.
var exit = os.Exit

// shutdown closes the stores opened for the command. It is safe to call
// more than once.
func shutdown() {
	if svc != nil {
		if err := svc.Close(context.Background()); err != nil {
			logger.Warn("failed to close", zap.Error(err))
		}
		svc = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// fail reports err, closes what the command opened and exits.
func fail(what string, err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", red("Error:"), what, err)
	shutdown()
	exit(1)
}

// report prints a title and v as indented JSON, or fails with err.
func report(title string, v any, err error) {
	if err != nil {
		fail(title, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail("failed to encode result", err)
	}
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("%s\n%s\n", cyan("=== "+title+" ==="), data)
}

// pairs parses key=value arguments.
func pairs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		out[k] = v
	}
	return out, nil
}
