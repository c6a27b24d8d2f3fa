package passwordresets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// markUsedLua flips used 0 -> 1 and drops the token from the active index.
// KEYS[1] = token hash key
// KEYS[2] = active zset key
// ARGV[1] = token id
var markUsedLua = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'used') ~= '0' then
  return 0
end
redis.call('HSET', KEYS[1], 'used', '1')
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

// RedisRepository stores reset tokens as hashes under <prefix>:reset:<id> and
// indexes unused ones in a sorted set scored by expiry.
type RedisRepository struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "auth"
	}
	return &RedisRepository{redis: client, prefix: prefix}
}

func (r *RedisRepository) tokenKey(id string) string { return r.prefix + ":reset:" + id }

func (r *RedisRepository) activeKey() string { return r.prefix + ":reset_active" }

func (r *RedisRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.tokenKey(id),
			"id", id,
			"user_id", token.UserID,
			"token_hash", token.TokenHash,
			"expires_at", token.ExpiresAt.UnixNano(),
			"used", "0",
			"created_at", createdAt.UnixNano(),
		)
		pipe.ZAdd(ctx, r.activeKey(), redis.Z{Score: float64(token.ExpiresAt.UnixMilli()), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	token.ID = id
	token.CreatedAt = createdAt
	token.Used = false
	return nil
}

// FindActive also drops index entries that expired before now.
func (r *RedisRepository) FindActive(ctx context.Context, now time.Time) ([]*models.PasswordResetToken, error) {
	nowMs := strconv.FormatInt(now.UnixMilli(), 10)

	var rangeCmd *redis.StringSliceCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, r.activeKey(), "-inf", "("+nowMs)
		rangeCmd = pipe.ZRangeByScore(ctx, r.activeKey(), &redis.ZRangeBy{Min: nowMs, Max: "+inf"})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	ids := rangeCmd.Val()
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.tokenKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var result []*models.PasswordResetToken
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		t, err := decodeToken(fields)
		if err != nil {
			return nil, err
		}
		// the zset score has millisecond precision
		if t.Used || t.ExpiresAt.Before(now) {
			continue
		}
		result = append(result, t)
	}

	return result, nil
}

func (r *RedisRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	n, err := markUsedLua.Run(ctx, r.redis, []string{r.tokenKey(id), r.activeKey()}, id).Int()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n == 1, nil
}

func decodeToken(fields map[string]string) (*models.PasswordResetToken, error) {
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reset token record: %w", err)
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reset token record: %w", err)
	}

	return &models.PasswordResetToken{
		ID:        fields["id"],
		UserID:    fields["user_id"],
		TokenHash: fields["token_hash"],
		ExpiresAt: time.Unix(0, expires).UTC(),
		Used:      fields["used"] == "1",
		CreatedAt: time.Unix(0, created).UTC(),
	}, nil
}
