// Command smith runs a natural-language programming task through a
// multi-agent reasoning strategy and verifies the result.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codesmith/internal/config"
	"codesmith/internal/logging"
	"codesmith/internal/transparency"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "smith",
	Short: "codesmith - multi-strategy LLM code generation",
	Long: `codesmith asks a team of LLM agents to solve a Go programming task.

An analyzer recommends one of three reasoning strategies (code-first,
pseudocode-first, neuro-symbolic). The chosen pipeline generates code and
refines it through a critique loop; generated test cases then verify the
result, and failing code goes through a final correction loop.

Run without arguments to start an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the codesmith version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.Name, cfg.Version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Overall run timeout")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration. Any failure is fatal.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Debug("config loaded",
		zap.String("path", configPath),
		zap.String("provider", cfg.LLM.Provider),
		zap.Bool("search", cfg.Search.Enabled))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	color := isatty.IsTerminal(os.Stdout.Fd())
	v := newView(cmd.OutOrStdout(), color, verbose)

	eng, err := buildEngine(ctx, cfg, transparency.NewEmitter(v))
	if err != nil {
		return err
	}

	s := &session{in: NewInputReader(), view: v, solver: eng, log: logger}
	if _, err := s.run(ctx); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if ctx.Err() != nil {
		logger.Info("run interrupted", zap.Error(ctx.Err()))
	}
	return nil
}
