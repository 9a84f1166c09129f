package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// Mutex is a best-effort distributed lock backed by Redis SET NX.
type Mutex struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// NewMutex builds a mutex for the given key with an expiry guarding against
// crashed holders.
func NewMutex(client *redis.Client, key string, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Mutex{client: client, key: key, ttl: ttl}
}

// TryAcquire attempts to take the lock without blocking. It returns false
// when another holder owns the key.
func (m *Mutex) TryAcquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := m.client.SetNX(ctx, m.key, token, m.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		m.token = token
	}
	return ok, nil
}

// Release frees the lock if this mutex still owns it.
func (m *Mutex) Release(ctx context.Context) error {
	if m.token == "" {
		return nil
	}
	err := m.client.Eval(ctx, releaseScript, []string{m.key}, m.token).Err()
	m.token = ""
	return err
}
