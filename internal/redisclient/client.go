package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"checkout-service/internal/session"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

const (
	lockTTL        = 5 * time.Second
	lockRetryDelay = 50 * time.Millisecond
	lockAttempts   = 20
)

type Client struct {
	rdb           *redis.Client
	sessionTTL    time.Duration
	releaseScript *redis.Script
}

// NewClient creates a new Redis client backing checkout sessions
func NewClient(addr, password string, db int, sessionTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		sessionTTL:    sessionTTL,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sessionKey(id string) string {
	return fmt.Sprintf("checkout:session:%s", id)
}

// Load retrieves a session, returning session.ErrNotFound when it expired or
// never existed
func (c *Client) Load(ctx context.Context, id string) (*session.Session, error) {
	data, err := c.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return session.Unmarshal(data)
}

// Save stores a session and refreshes its TTL
func (c *Client) Save(ctx context.Context, s *session.Session) error {
	data, err := session.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := c.rdb.Set(ctx, sessionKey(s.ID), data, c.sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Lock takes the per-session lock so stage transitions never interleave.
// The returned function releases it.
func (c *Client) Lock(ctx context.Context, id string) (func(), error) {
	key := fmt.Sprintf("lock:%s", sessionKey(id))
	token := uuid.New().String()

	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := c.rdb.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock failed: %w", err)
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = c.releaseScript.Run(ctx, c.rdb, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	return nil, session.ErrBusy
}

const processedEventTTL = 24 * time.Hour

func processedKey(eventID string) string {
	return fmt.Sprintf("checkout:event:%s", eventID)
}

// IsProcessed reports whether eventID was already marked
func (c *Client) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, processedKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records eventID as handled for processedEventTTL
func (c *Client) MarkProcessed(ctx context.Context, eventID string) error {
	if err := c.rdb.Set(ctx, processedKey(eventID), 1, processedEventTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
