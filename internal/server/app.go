// Package server wires the auth service together: storage backend, token
// codec, password hasher, mail delivery, the credential lifecycle engine and
// the HTTP transport. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	http   *httpapi.Server
}

// connectBackoff bounds how long startup waits for the store.
var connectBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(logOut, c.LogLevel)

	repos, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	svc, codec, err := buildAuthService(c, repos, logger)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	srv := httpapi.NewServer(c.HTTPAddr, logger, svc, codec, repos.Ping)

	return &App{config: c, logger: logger, repos: repos, http: srv}, nil
}

func newLogger(w io.Writer, level string) logging.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})))
}

// openStore connects the configured backend, waiting for it to come up.
func openStore(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	var repos repomanager.RepositoryManager

	switch c.StorageBackend {
	case config.StoragePostgres:
		db, err := sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		m, err := repomanager.NewPostgresRepositoryManager(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repos = m

	case config.StorageRedis:
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		repos = repomanager.NewRedisRepositoryManager(redis.NewClient(opts), c.RedisPrefix)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	err := retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		if err := repos.Ping(ctx); err != nil {
			logger.Warn(ctx, "store not reachable yet", "backend", c.StorageBackend, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("%s connect: %w", c.StorageBackend, err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	logger.Info(ctx, "store ready", "backend", c.StorageBackend)
	return repos, nil
}

func buildAuthService(c *config.Config, repos repomanager.RepositoryManager, logger logging.Logger) (*services.AuthService, *auth.Codec, error) {
	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  []byte(c.AccessTokenSecret),
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshSecret: []byte(c.RefreshTokenSecret),
		RefreshTTL:    c.RefreshTokenValidityDuration,
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	hasher, err := passwords.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	sender, err := mail.NewSender(c.MailConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("mail init error: %w", err)
	}

	svc, err := services.NewAuthService(services.Deps{
		Repos:    repos,
		Tokens:   codec,
		Hasher:   hasher,
		Notifier: mail.NewMailer(sender, c.AppURL, c.ResetTokenLifetime),
		Logger:   logger,
	}, c)
	if err != nil {
		return nil, nil, err
	}

	return svc, codec, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "store close", "error", err)
	}

	app.logger.Info(ctx, "Stopped")
}
