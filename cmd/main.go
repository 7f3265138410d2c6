// Command dilemma runs Prisoner's Dilemma tournaments between strategy
// scripts, locally or as a classroom service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/dilemma/internal/config"
	"github.com/okian/dilemma/internal/sandbox"
	"github.com/okian/dilemma/pkg/logger"
)

// errRunFailed marks a command whose output already describes the failure.
var errRunFailed = errors.New("run failed")

// cli carries what every subcommand needs once the root has initialized.
type cli struct {
	cfg *config.Config
	out io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	rootCmd := &cobra.Command{
		Use:   "dilemma",
		Short: "Iterated Prisoner's Dilemma tournaments for the classroom",
		Long: `dilemma runs round-robin tournaments between strategies written in a
small Python-like scripting language, scores every game and ranks the players.

Configuration is read from DILEMMA_* environment variables (a .env file in
the working directory is loaded first) and an optional YAML file named by
DILEMMA_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Override log_level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(c),
		newServeCmd(c),
		newSubmitCmd(c),
		newFetchCmd(c),
		newDefaultSourceCmd(c),
	)
	return rootCmd
}

// init loads .env, configuration and logging. Logs go to stderr so command
// output stays clean.
func (c *cli) init(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	if err := logger.InitWithWriter(os.Stderr, jsonLogs); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

// engine builds a sandbox engine from the configuration.
func (c *cli) engine() *sandbox.Engine {
	return sandbox.NewEngine(
		sandbox.WithIterations(c.cfg.Iterations),
		sandbox.WithRepetitions(c.cfg.Repetitions),
		sandbox.WithStepBudget(c.cfg.StepBudget),
		sandbox.WithTimeout(c.cfg.RunTimeout()),
		sandbox.WithSeed(c.cfg.RandomSeed),
	)
}

func newDefaultSourceCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "default-source",
		Short: "Print the default strategies document",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := io.WriteString(c.out, sandbox.DefaultSource())
			return err
		},
	}
}
