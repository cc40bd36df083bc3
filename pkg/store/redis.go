package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

const redisStateKey = "workspace:state"

// redisDoc is the full document as stored under one Redis key; the version
// travels inside the value and the CAS rides on WATCH/MULTI.
type redisDoc struct {
	Version int            `json:"version"`
	Users   []models.User  `json:"users"`
	Data    models.AppData `json:"data"`
}

// RedisAdapter keeps the state document under a single Redis key.
type RedisAdapter struct {
	client *redis.Client
	key    string
}

// NewRedisAdapter connects to Redis using a redis:// URL.
func NewRedisAdapter(redisURL string) (*RedisAdapter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}
	return &RedisAdapter{client: client, key: redisStateKey}, nil
}

// NewRedisAdapterWithClient wraps an existing client; used by tests.
func NewRedisAdapterWithClient(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client, key: redisStateKey}
}

// Load implements Adapter.
func (a *RedisAdapter) Load(ctx context.Context) (*Document, error) {
	raw, err := a.client.Get(ctx, a.key).Result()
	if errors.Is(err, redis.Nil) {
		doc := emptyDocument()
		encoded, err := json.Marshal(redisDoc{Version: doc.Version, Users: doc.Users, Data: doc.Data})
		if err != nil {
			return nil, fmt.Errorf("failed to encode initial state: %w", err)
		}
		// SetNX so a concurrent initializer wins cleanly.
		if err := a.client.SetNX(ctx, a.key, encoded, 0).Err(); err != nil {
			return nil, fmt.Errorf("failed to initialize state: %w", err)
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	var doc redisDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("corrupt state document: %w", err)
	}
	return &Document{Version: doc.Version, Users: doc.Users, Data: doc.Data}, nil
}

// TrySave implements Adapter using a WATCH/MULTI transaction: the write only
// lands if the key is untouched since the version check inside the watch.
func (a *RedisAdapter) TrySave(ctx context.Context, version int, users []models.User, data models.AppData) (bool, error) {
	committed := false
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, a.key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		var current redisDoc
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &current); err != nil {
				return fmt.Errorf("corrupt state document: %w", err)
			}
		}
		if current.Version != version {
			// Stale read; let the caller retry from Load.
			return nil
		}
		encoded, err := json.Marshal(redisDoc{Version: version + 1, Users: users, Data: data})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, a.key, encoded, 0)
			return nil
		})
		if err != nil {
			return err
		}
		committed = true
		return nil
	}
	err := a.client.Watch(ctx, txn, a.key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to save state: %w", err)
	}
	return committed, nil
}

// Close implements Adapter.
func (a *RedisAdapter) Close() error {
	return a.client.Close()
}
