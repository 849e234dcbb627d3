package main

import (
	"fmt"
	"os"

	"github.com/jrsteele09/go-exam-client/api"
	"github.com/jrsteele09/go-exam-client/auth"
	"github.com/jrsteele09/go-exam-client/internal/config"
	"github.com/jrsteele09/go-exam-client/internal/logging"
	"github.com/jrsteele09/go-exam-client/token/store"
	"github.com/jrsteele09/go-exam-client/transport"
	"github.com/rs/zerolog"
)

// app wires the session manager, the token store and the API clients for one CLI invocation
type app struct {
	config  config.Config
	log     zerolog.Logger
	api     *api.Client
	manager *auth.Manager
	exams   *api.ExamClient
}

func newApp(configPath, logLevel string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.GetLogLevel()
	}
	logger := logging.Setup(logLevel, cfg.GetEnv())

	if err := os.MkdirAll(cfg.GetDataFolder(), 0o700); err != nil {
		return nil, fmt.Errorf("creating data folder: %w", err)
	}

	a := &app{
		config: cfg,
		log:    logger,
		api:    api.NewClient(cfg.GetAPIBaseURL(), cfg.GetRequestTimeout(), api.WithLogger(logging.Component("api"))),
	}

	a.manager, err = auth.NewManager(a.api, store.NewDiskvRepo(cfg.GetDataFolder()),
		auth.WithSessionConfig(cfg),
		auth.WithLogger(logging.Component("auth")),
	)
	if err != nil {
		return nil, err
	}

	httpClient := transport.NewClient(a.manager, transport.WithLogger(logging.Component("transport")))
	httpClient.Timeout = cfg.GetRequestTimeout()
	a.exams = api.NewExamClient(cfg.GetAPIBaseURL(), httpClient)

	if err := a.manager.Initialize(); err != nil {
		a.log.Warn().Err(err).Msg("Unable to restore the saved session")
	}
	return a, nil
}

func (a *app) close() {
	a.manager.Close()
}

// requireSession fails early with a helpful message when nobody is logged in
func (a *app) requireSession() error {
	if a.manager.IsAuthenticated() {
		return nil
	}
	return fmt.Errorf("not logged in, run the login command first")
}
