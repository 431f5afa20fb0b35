package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"holoprofile/internal/gateway/app"
	"holoprofile/internal/gateway/config"
	"holoprofile/internal/logging"
)

// cli carries the persistent flags and the state built from them before any
// subcommand runs.
type cli struct {
	verbose    bool
	logLevel   string
	categories string
	bankDir    string
	provider   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "holoprofile",
		Short: "Two-stage LLM analysis of personality assessment answers",
		Long: `holoprofile turns questionnaire answers into a structured personality report.

An analysis pass writes a free-text clinical-style reading of the answers; a
synthesis pass turns it into a JSON profile, falling back to schema-constrained
generation when the model's JSON cannot be parsed.

Run "holoprofile serve" for the HTTP API or "holoprofile analyze" offline.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging with the console encoder")
	pf.StringVar(&c.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	pf.StringVar(&c.categories, "categories", "", "category prefix table (YAML) replacing the embedded one")
	pf.StringVar(&c.bankDir, "bank-dir", "", "question bank directory (overrides QUESTION_BANK_DIR)")
	pf.StringVar(&c.provider, "provider", "", "LLM provider: openai, gemini or fake (overrides LLM_PROVIDER)")

	root.AddCommand(c.serveCmd(), c.analyzeCmd(), c.probeCmd(), c.questionsCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.categories != "" {
		cfg.CategoriesFile = c.categories
	}
	if c.bankDir != "" {
		cfg.QuestionBankDir = c.bankDir
	}
	if c.provider != "" {
		cfg.LLM.Provider = c.provider
	}
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	if c.verbose {
		level = "debug"
	}
	log, err := logging.New(level, c.verbose)
	if err != nil {
		return err
	}
	c.cfg, c.log = cfg, log
	return nil
}

func (c *cli) app() (*app.App, error) {
	return app.New(c.cfg, c.log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
