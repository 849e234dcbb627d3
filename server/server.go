package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/jrsteele09/go-exam-client/internal/config"
	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/jrsteele09/go-exam-client/token/jwt"
	"github.com/jrsteele09/go-exam-client/token/refresh"
	"github.com/jrsteele09/go-exam-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server is the development exam server: it issues tokens, renews them and
// serves question sets. It exists for local runs and end to end tests.
type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	log    zerolog.Logger

	users         users.UserRepo
	refreshTokens *refresh.Manager
	tokens        *jwt.Creator
	questions     QuestionBank
	rotateRefresh bool

	submissionsLock sync.RWMutex
	submissions     []oauthmodel.Submission
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithTokenCreator replaces the access token creator built from configuration
func WithTokenCreator(creator *jwt.Creator) ServerOption {
	return func(s *Server) {
		s.tokens = creator
	}
}

// WithQuestionBank replaces the built in sample questions
func WithQuestionBank(bank QuestionBank) ServerOption {
	return func(s *Server) {
		s.questions = bank
	}
}

// WithRefreshRotation makes every renewal issue a new refresh token
func WithRefreshRotation(rotate bool) ServerOption {
	return func(s *Server) {
		s.rotateRefresh = rotate
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.log = logger
	}
}

func New(cfg config.Config, userRepo users.UserRepo, refreshRepo refresh.Repo, options ...ServerOption) (*Server, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("[Server New] user repo is required")
	}
	if refreshRepo == nil {
		return nil, fmt.Errorf("[Server New] refresh token repo is required")
	}

	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		log:           log.Logger.With().Str("component", "server").Logger(),
		users:         userRepo,
		refreshTokens: refresh.NewManager(refreshRepo, cfg),
		tokens:        jwt.NewCreator(jwt.NewHMACSigner(cfg.GetTokenSecret()), cfg.GetAccessTokenExpiry()),
		questions:     NewSampleQuestionBank(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Submissions returns a copy of the answer sheets received so far
func (s *Server) Submissions() []oauthmodel.Submission {
	s.submissionsLock.RLock()
	defer s.submissionsLock.RUnlock()
	return append([]oauthmodel.Submission(nil), s.submissions...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
