package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// createTokenLua claims the jti index, writes the token hash and adds it to
// the owner's set.
// KEYS[1] = jti index key
// KEYS[2] = token hash key
// KEYS[3] = user set key
// ARGV    = id, jti, user_id, expires_at, created_at
var createTokenLua = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[2],
  'id', ARGV[1],
  'jti', ARGV[2],
  'user_id', ARGV[3],
  'expires_at', ARGV[4],
  'revoked', '0',
  'created_at', ARGV[5])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

// revokeLua flips revoked 0 -> 1.
// KEYS[1] = token hash key
//
// Returns 1 when this call revoked the token, 0 otherwise.
var revokeLua = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'revoked') ~= '0' then
  return 0
end
redis.call('HSET', KEYS[1], 'revoked', '1')
return 1
`)

// revokeByJTILua resolves the jti index and revokes the referenced token.
// KEYS[1] = jti index key
// ARGV[1] = token key prefix
var revokeByJTILua = redis.NewScript(`
local id = redis.call('GET', KEYS[1])
if not id then
  return 0
end
local key = ARGV[1] .. id
if redis.call('HGET', key, 'revoked') ~= '0' then
  return 0
end
redis.call('HSET', key, 'revoked', '1')
return 1
`)

// revokeAllLua revokes every active token in the user's set.
// KEYS[1] = user set key
// ARGV[1] = token key prefix
//
// Returns the number of tokens revoked.
var revokeAllLua = redis.NewScript(`
local n = 0
for _, id in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  local key = ARGV[1] .. id
  if redis.call('HGET', key, 'revoked') == '0' then
    redis.call('HSET', key, 'revoked', '1')
    n = n + 1
  end
end
return n
`)

// RedisRepository stores refresh tokens as hashes under
// <prefix>:refresh:<id>, indexed by jti and grouped per user. Records are kept
// after revocation and carry no TTL.
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

func (r *RedisRepository) tokenPrefix() string { return r.prefix + ":refresh:" }

func (r *RedisRepository) tokenKey(id string) string { return r.tokenPrefix() + id }

func (r *RedisRepository) jtiKey(jti string) string { return r.prefix + ":refresh_jti:" + jti }

func (r *RedisRepository) userKey(userID string) string { return r.prefix + ":user_refresh:" + userID }

func (r *RedisRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	ok, err := createTokenLua.Run(ctx, r.redis,
		[]string{r.jtiKey(token.JTI), r.tokenKey(id), r.userKey(token.UserID)},
		id, token.JTI, token.UserID, token.ExpiresAt.UnixNano(), createdAt.UnixNano(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if ok == 0 {
		return common.ErrorAlreadyExists
	}

	token.ID = id
	token.CreatedAt = createdAt
	token.Revoked = false
	return nil
}

func (r *RedisRepository) FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	id, err := r.redis.Get(ctx, r.jtiKey(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	fields, err := r.redis.HGetAll(ctx, r.tokenKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	return decodeToken(fields)
}

func (r *RedisRepository) Revoke(ctx context.Context, id string) (bool, error) {
	n, err := revokeLua.Run(ctx, r.redis, []string{r.tokenKey(id)}).Int()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n == 1, nil
}

func (r *RedisRepository) RevokeByJTI(ctx context.Context, jti string) (int64, error) {
	n, err := revokeByJTILua.Run(ctx, r.redis, []string{r.jtiKey(jti)}, r.tokenPrefix()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return n, nil
}

func (r *RedisRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := revokeAllLua.Run(ctx, r.redis, []string{r.userKey(userID)}, r.tokenPrefix()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return n, nil
}

func decodeToken(fields map[string]string) (*models.RefreshToken, error) {
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh token record: %w", err)
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh token record: %w", err)
	}

	return &models.RefreshToken{
		ID:        fields["id"],
		JTI:       fields["jti"],
		UserID:    fields["user_id"],
		ExpiresAt: time.Unix(0, expires).UTC(),
		Revoked:   fields["revoked"] == "1",
		CreatedAt: time.Unix(0, created).UTC(),
	}, nil
}
