// Package httpapi exposes the credential lifecycle engine over JSON/HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// AuthService is the engine surface the handlers call.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) *services.MessageResult
	RequestPasswordReset(ctx context.Context, email string) (*services.MessageResult, error)
	ResetPassword(ctx context.Context, secret, newPassword string) (*services.MessageResult, error)
	Me(ctx context.Context, userID string) (*services.UserSummary, error)
}

// TokenVerifier checks bearer access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// HealthChecker reports store reachability for /healthz.
type HealthChecker func(ctx context.Context) error

type Server struct {
	address string
	auth    AuthService
	tokens  TokenVerifier
	health  HealthChecker
	logger  logging.Logger
	router  chi.Router
}

func NewServer(address string, l logging.Logger, svc AuthService, tokens TokenVerifier, health HealthChecker) *Server {
	s := &Server{
		address: address,
		auth:    svc,
		tokens:  tokens,
		health:  health,
		logger:  l.With("module", "http_server"),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	for _, rt := range s.routes() {
		r.With(s.enforce(rt.policy)).Method(rt.method, rt.path, rt.handler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Handler returns the routed handler; used by Run and by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
