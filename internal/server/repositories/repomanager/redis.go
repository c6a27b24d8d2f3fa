package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/redis/go-redis/v9"
)

// RedisRepositoryManager vends Redis-backed repositories. Every state
// transition the service relies on is a single Lua script, so WithTx does not
// open a MULTI block and simply runs fn.
type RedisRepositoryManager struct {
	client         redis.UniversalClient
	users          *users.RedisRepository
	refreshTokens  *refreshtokens.RedisRepository
	passwordResets *passwordresets.RedisRepository
}

func NewRedisRepositoryManager(client redis.UniversalClient, prefix string) *RedisRepositoryManager {
	return &RedisRepositoryManager{
		client:         client,
		users:          users.NewRedisRepository(client, prefix),
		refreshTokens:  refreshtokens.NewRedisRepository(client, prefix),
		passwordResets: passwordresets.NewRedisRepository(client, prefix),
	}
}

func (m *RedisRepositoryManager) Users() users.Repository { return m.users }

func (m *RedisRepositoryManager) RefreshTokens() refreshtokens.Repository { return m.refreshTokens }

func (m *RedisRepositoryManager) PasswordResets() passwordresets.Repository { return m.passwordResets }

func (m *RedisRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return fn(ctx, m)
}

// RunMigrations is a no-op; the Redis layout needs no schema.
func (m *RedisRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *RedisRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *RedisRepositoryManager) Close() error {
	return m.client.Close()
}
