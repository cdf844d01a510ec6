package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// maxHistoryMessages caps the per-user conversation context handed to the
// language model.
const maxHistoryMessages = 10

// HistoryStore keeps per-user conversation turns for prompt construction.
type HistoryStore interface {
	Get(ctx context.Context, userID string) ([]Message, error)
	Append(ctx context.Context, userID string, messages ...Message) error
	Clear(ctx context.Context, userID string) error
}

// MemoryHistoryStore is an in-process LRU-bounded history store. The LRU
// bounds total memory across users; each user keeps only the most recent
// maxHistoryMessages turns.
type MemoryHistoryStore struct {
	cache *lru.Cache[string, []Message]
}

// NewMemoryHistoryStore creates a store bounded to maxUsers concurrent
// conversation histories.
func NewMemoryHistoryStore(maxUsers int) (*MemoryHistoryStore, error) {
	cache, err := lru.New[string, []Message](maxUsers)
	if err != nil {
		return nil, fmt.Errorf("creating history cache: %w", err)
	}
	return &MemoryHistoryStore{cache: cache}, nil
}

// Get returns the stored history for a user, possibly empty.
func (s *MemoryHistoryStore) Get(_ context.Context, userID string) ([]Message, error) {
	messages, _ := s.cache.Get(userID)
	return messages, nil
}

// Append adds turns and trims to the most recent window.
func (s *MemoryHistoryStore) Append(_ context.Context, userID string, messages ...Message) error {
	existing, _ := s.cache.Get(userID)
	updated := append(append([]Message(nil), existing...), messages...)
	if len(updated) > maxHistoryMessages {
		updated = updated[len(updated)-maxHistoryMessages:]
	}
	s.cache.Add(userID, updated)
	return nil
}

// Clear drops a user's history.
func (s *MemoryHistoryStore) Clear(_ context.Context, userID string) error {
	s.cache.Remove(userID)
	return nil
}

// RedisHistoryStore keeps conversation histories in redis so they survive
// restarts and are shared across replicas.
type RedisHistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHistoryStore creates a redis-backed store. Histories expire after
// ttl of inactivity.
func NewRedisHistoryStore(client *redis.Client, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{client: client, ttl: ttl}
}

func historyKey(userID string) string { return "conversation:" + userID }

// Get returns the stored history for a user, possibly empty.
func (s *RedisHistoryStore) Get(ctx context.Context, userID string) ([]Message, error) {
	payload, err := s.client.Get(ctx, historyKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching conversation history: %w", err)
	}
	var messages []Message
	if err := json.Unmarshal(payload, &messages); err != nil {
		return nil, fmt.Errorf("decoding conversation history: %w", err)
	}
	return messages, nil
}

// Append adds turns, trims to the most recent window and refreshes the TTL.
func (s *RedisHistoryStore) Append(ctx context.Context, userID string, messages ...Message) error {
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	updated := append(existing, messages...)
	if len(updated) > maxHistoryMessages {
		updated = updated[len(updated)-maxHistoryMessages:]
	}
	payload, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encoding conversation history: %w", err)
	}
	if err := s.client.Set(ctx, historyKey(userID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing conversation history: %w", err)
	}
	return nil
}

// Clear drops a user's history.
func (s *RedisHistoryStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("clearing conversation history: %w", err)
	}
	return nil
}
