package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
)

// unlockScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another instance is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const lockRetryInterval = 50 * time.Millisecond

// RedisStore keeps sessions in Redis under "session:<id>" with a sliding TTL.
type RedisStore struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	lockTTL time.Duration
	log     zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb redis.UniversalClient, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{
		rdb:     rdb,
		ttl:     ttl,
		lockTTL: lockTTL,
		log:     logger.Component("session"),
	}
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := r.rdb.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return idle(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", userID, err)
	}
	s, err := Unmarshal(userID, raw)
	if err != nil {
		// повреждённая сессия не должна блокировать пользователя
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("Dropping undecodable session")
		return idle(userID), nil
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now()
	raw, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, key(s.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", s.UserID, err)
	}
	return nil
}

func (r *RedisStore) Reset(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("reset session %d: %w", userID, err)
	}
	return nil
}

// Lock takes "session:<id>:lock" with SET NX and a random token, retrying
// until ctx is done. The lock expires after lockTTL if never released.
func (r *RedisStore) Lock(ctx context.Context, userID int64) (func(), error) {
	lockKey := key(userID) + ":lock"
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.rdb.SetNX(ctx, lockKey, token, r.lockTTL).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock session %d: %w", userID, err)
		}
		if ok {
			return func() {
				// release even if the caller's context is already cancelled
				ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				if err := unlockScript.Run(ctx, r.rdb, []string{lockKey}, token).Err(); err != nil {
					r.log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to release session lock")
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLocked
		case <-ticker.C:
		}
	}
}

func key(userID int64) string { return fmt.Sprintf("session:%d", userID) }
