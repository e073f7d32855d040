package permclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Session storage key namespace. Fixed so invalidation always finds the entry.
const storageKeyPrefix = "taskhive:permissions:snapshot:"

// SessionStorage persists the snapshot entry across page loads within one
// session. Implementations: in-memory (tests, single process) and redis
// (shared session backend).
type SessionStorage interface {
	// Load returns the persisted entry, or nil if none exists.
	Load(ctx context.Context) (*Entry, error)

	// Save persists the entry.
	Save(ctx context.Context, entry *Entry) error

	// Clear removes the persisted entry.
	Clear(ctx context.Context) error
}

// MemoryStorage is an in-process SessionStorage.
type MemoryStorage struct {
	mu    sync.Mutex
	entry *Entry
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(ctx context.Context) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entry, nil
}

func (m *MemoryStorage) Save(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = entry
	return nil
}

func (m *MemoryStorage) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
	return nil
}

// RedisStorage persists entries in redis, keyed per session. The redis TTL
// matches the cache TTL so abandoned sessions expire on their own; staleness
// is still checked lazily on read, redis expiry is just cleanup.
type RedisStorage struct {
	client    *redis.Client
	sessionID string
	ttl       time.Duration
}

// NewRedisStorage creates a redis-backed storage for one session. An empty
// sessionID gets a generated one, so separate stores never share a key.
func NewRedisStorage(client *redis.Client, sessionID string, ttl time.Duration) *RedisStorage {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return &RedisStorage{client: client, sessionID: sessionID, ttl: ttl}
}

func (r *RedisStorage) key() string {
	return storageKeyPrefix + r.sessionID
}

func (r *RedisStorage) Load(ctx context.Context) (*Entry, error) {
	data, err := r.client.Get(ctx, r.key()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cached snapshot: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt cache entries are treated as cold, not fatal.
		return nil, nil
	}
	return &entry, nil
}

func (r *RedisStorage) Save(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cached snapshot: %w", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear cached snapshot: %w", err)
	}
	return nil
}
