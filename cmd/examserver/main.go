package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-exam-client/internal/config"
	"github.com/jrsteele09/go-exam-client/internal/logging"
	"github.com/jrsteele09/go-exam-client/server"
	"github.com/jrsteele09/go-exam-client/token/jwt"
	refreshrepofake "github.com/jrsteele09/go-exam-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-exam-client/users/repofake"
	"github.com/rs/zerolog/log"
)

const (
	configPathVar  = "EXAM_SERVER_CONFIG"
	devPasswordVar = "DEV_USER_PASSWORD"
	rotateVar      = "ROTATE_REFRESH_TOKENS"
	signingAlgVar  = "SIGNING_ALG"
	signingKeyID   = "exam-dev-key"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(config.GetEnv(configPathVar, ""))
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName() + " Server")

	options := []server.ServerOption{server.WithRefreshRotation(config.GetEnv(rotateVar, "") == "true")}
	if config.GetEnv(signingAlgVar, "") == jwt.RS256 {
		signer, err := jwt.GenerateRSASigner(signingKeyID, 2048)
		if err != nil {
			return err
		}
		options = append(options, server.WithTokenCreator(jwt.NewCreator(signer, c.GetAccessTokenExpiry())))
		log.Info().Str("kid", signingKeyID).Msg("Signing access tokens with RS256")
	}

	srv, err := server.New(c, fakeuserrepo.NewFakeUserRepo(), refreshrepofake.NewFakeRefreshTokenRepo(), options...)
	if err != nil {
		return err
	}

	generated, err := srv.SeedUser(server.DefaultDevUsername, config.GetEnv(devPasswordVar, ""), "Practice Student")
	if err != nil {
		return err
	}
	if generated != "" {
		log.Info().Str("username", server.DefaultDevUsername).Msgf("Generated development password: %s", generated)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
