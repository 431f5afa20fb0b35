package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"holoprofile/internal/gateway/config"
	"holoprofile/internal/gateway/handler"
	"holoprofile/internal/gateway/server"
	"holoprofile/internal/llm"
	"holoprofile/internal/pipeline"
	"holoprofile/internal/questionbank"
	"holoprofile/internal/survey"
)

// App holds the wired dependencies shared by the API server and the CLI.
type App struct {
	Config   *config.Config
	Loader   *questionbank.DirLoader
	Factory  *llm.Factory
	Pipeline *pipeline.Pipeline

	handler http.Handler
	server  *server.Server
	log     *zap.Logger
}

type Option func(*options)

type options struct {
	llmOpts []llm.Option
}

// WithLLMOptions appends factory options after the ones derived from config.
func WithLLMOptions(opts ...llm.Option) Option {
	return func(o *options) { o.llmOpts = append(o.llmOpts, opts...) }
}

func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	loader, err := questionbank.NewDirLoader(cfg.QuestionBankDir, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open question bank: %w", err)
	}
	bank, err := loader.Bank("")
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}
	table, err := loadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}
	provider, err := llm.ParseProvider(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}

	factory := llm.NewFactory(append([]llm.Option{
		llm.WithProvider(provider),
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
		llm.WithLogger(log.Named("llm")),
	}, o.llmOpts...)...)
	pipe := pipeline.New(factory,
		survey.NewFormatter(bank),
		survey.NewDetector(table),
		pipeline.WithTemperatures(cfg.LLM.AnalysisTemperature, cfg.LLM.SynthesisTemperature),
		pipeline.WithLogger(log),
	)

	h := handler.New(handler.Deps{Analyzer: pipe, Prober: factory, Questions: loader, Logger: log})
	router := server.NewRouter(h, cfg.CORSAllowedOrigins, log)

	log.Info("app initialized",
		zap.String("provider", string(provider)),
		zap.String("question_bank", cfg.QuestionBankDir),
		zap.Int("questions_zh", bank.Len(string(questionbank.LocaleZH))),
		zap.Duration("llm_timeout", cfg.LLM.Timeout))

	return &App{
		Config:   cfg,
		Loader:   loader,
		Factory:  factory,
		Pipeline: pipe,
		handler:  router,
		server:   server.New(cfg.Port, router, log),
		log:      log,
	}, nil
}

func loadCategories(path string) (*survey.CategoryTable, error) {
	if path == "" {
		return survey.DefaultCategories(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return survey.LoadCategories(raw)
}

func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
