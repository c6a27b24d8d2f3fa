package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	to, value string
}

type fakeNotifier struct {
	mu         sync.Mutex
	welcome    []sentMail
	resets     []sentMail
	welcomeErr error
	resetErr   error
}

func (n *fakeNotifier) SendWelcome(ctx context.Context, email, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = append(n.welcome, sentMail{to: email, value: name})
	return n.welcomeErr
}

func (n *fakeNotifier) SendPasswordReset(ctx context.Context, email, secret string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, sentMail{to: email, value: secret})
	return n.resetErr
}

func (n *fakeNotifier) lastResetSecret(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.resets, "no reset email sent")
	return n.resets[len(n.resets)-1].value
}

type testEnv struct {
	svc      *AuthService
	clock    *fakeClock
	notifier *fakeNotifier
	repos    *repomanager.RedisRepositoryManager
	codec    *auth.Codec
	mr       *miniredis.Miniredis
}

type envOption func(cfg *config.Config)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	for _, o := range opts {
		o(cfg)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	repos := repomanager.NewRedisRepositoryManager(rdb, "test")

	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}

	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	}, clock.Now)
	require.NoError(t, err)

	hasher, err := passwords.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	svc, err := NewAuthService(Deps{
		Repos:    repos,
		Tokens:   codec,
		Hasher:   hasher,
		Notifier: notifier,
		Logger:   logging.NewDiscardLogger(),
		Now:      clock.Now,
	}, cfg)
	require.NoError(t, err)
	svc.revokeBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}

	return &testEnv{svc: svc, clock: clock, notifier: notifier, repos: repos, codec: codec, mr: mr}
}

func (e *testEnv) register(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := e.svc.Register(context.Background(), RegisterInput{Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func requireKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "want kind %v, got %v", kind, err)
	var e *common.Error
	require.ErrorAs(t, err, &e)
	if msg != "" {
		require.Equal(t, msg, e.Message)
	}
}
