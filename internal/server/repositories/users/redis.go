package users

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

// createUserLua claims the email index and writes the user hash in one step.
// KEYS[1] = email index key
// KEYS[2] = user hash key
// ARGV    = id, email, name, has_name, password_hash, created_at
//
// Returns 1 on success, 0 when the email is taken.
var createUserLua = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[2],
  'id', ARGV[1],
  'email', ARGV[2],
  'name', ARGV[3],
  'has_name', ARGV[4],
  'password_hash', ARGV[5],
  'created_at', ARGV[6])
return 1
`)

// updatePasswordLua only touches existing users.
// KEYS[1] = user hash key
// ARGV[1] = new password hash
var updatePasswordLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'password_hash', ARGV[1])
return 1
`)

// RedisRepository stores each user as a hash under <prefix>:user:<id> with an
// email index under <prefix>:user_email:<email>. Records carry no TTL.
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

func (r *RedisRepository) userKey(id string) string {
	return r.prefix + ":user:" + id
}

func (r *RedisRepository) emailKey(email string) string {
	return r.prefix + ":user_email:" + email
}

func (r *RedisRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	name, hasName := "", "0"
	if user.Name != nil {
		name, hasName = *user.Name, "1"
	}

	ok, err := createUserLua.Run(ctx, r.redis,
		[]string{r.emailKey(user.Email), r.userKey(id)},
		id, user.Email, name, hasName, user.PasswordHash, createdAt.UnixNano(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if ok == 0 {
		return nil, common.ErrorAlreadyExists
	}

	user.ID = id
	user.CreatedAt = createdAt
	return user, nil
}

func (r *RedisRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := r.redis.Get(ctx, r.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	return r.GetUserByID(ctx, id)
}

func (r *RedisRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	fields, err := r.redis.HGetAll(ctx, r.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	return decodeUser(fields)
}

func (r *RedisRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	ok, err := updatePasswordLua.Run(ctx, r.redis, []string{r.userKey(id)}, passwordHash).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if ok == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func decodeUser(fields map[string]string) (*models.User, error) {
	nanos, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt user record: %w", err)
	}

	user := &models.User{
		ID:           fields["id"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
		CreatedAt:    time.Unix(0, nanos).UTC(),
	}
	if fields["has_name"] == "1" {
		name := fields["name"]
		user.Name = &name
	}

	return user, nil
}
