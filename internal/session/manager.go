package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisBreakerDuration = 30 * time.Second

// RedisSettings captures the optional Redis session backend settings.
type RedisSettings struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// SettingsProvider supplies the latest Redis settings snapshot.
type SettingsProvider func() RedisSettings

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

type redisConfig struct {
	addr     string
	password string
	prefix   string
	db       int
}

// Manager selects a session backend, falling back from Redis to memory
// behind a breaker when Redis is unavailable.
type Manager struct {
	provider       SettingsProvider
	nowFn          func() time.Time
	ttl            time.Duration
	memoryStore    *MemoryStore
	newRedisClient RedisClientFactory

	mu           sync.Mutex
	redisStore   *RedisStore
	redisCfg     redisConfig
	breakerUntil time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(provider SettingsProvider, ttl time.Duration, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if provider == nil {
		provider = func() RedisSettings { return RedisSettings{} }
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		provider:       provider,
		nowFn:          nowFn,
		ttl:            ttl,
		memoryStore:    NewMemoryStore(ttl, nowFn),
		newRedisClient: newRedisClient,
	}
}

// Get returns the session state using the best available backend.
func (m *Manager) Get(ctx context.Context, id string) (Data, bool, error) {
	if store, ok := m.redisBackend(ctx); ok {
		data, found, errGet := store.Get(ctx, id)
		if errGet == nil {
			return data, found, nil
		}
		m.tripBreaker(errGet, m.nowFn())
	}
	return m.memoryStore.Get(ctx, id)
}

// Put stores the session state using the best available backend.
func (m *Manager) Put(ctx context.Context, id string, data Data) error {
	if store, ok := m.redisBackend(ctx); ok {
		errPut := store.Put(ctx, id, data)
		if errPut == nil {
			return nil
		}
		m.tripBreaker(errPut, m.nowFn())
	}
	return m.memoryStore.Put(ctx, id, data)
}

// Delete removes the session from both backends.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if store, ok := m.redisBackend(ctx); ok {
		if errDel := store.Delete(ctx, id); errDel != nil {
			m.tripBreaker(errDel, m.nowFn())
		}
	}
	return m.memoryStore.Delete(ctx, id)
}

// BeginAnalysis runs the atomic cooldown check on the best available backend.
func (m *Manager) BeginAnalysis(ctx context.Context, id string, nowMS, windowMS int64) (BeginResult, error) {
	if store, ok := m.redisBackend(ctx); ok {
		result, errBegin := store.BeginAnalysis(ctx, id, nowMS, windowMS)
		if errBegin == nil || errors.Is(errBegin, ErrNotFound) {
			return result, errBegin
		}
		m.tripBreaker(errBegin, m.nowFn())
	}
	return m.memoryStore.BeginAnalysis(ctx, id, nowMS, windowMS)
}

// redisBackend returns a live Redis store when enabled and healthy.
func (m *Manager) redisBackend(ctx context.Context) (*RedisStore, bool) {
	if m == nil {
		return nil, false
	}
	cfg := m.provider()
	if !cfg.Enabled {
		return nil, false
	}
	now := m.nowFn()
	if m.isBreakerActive(now) {
		return nil, false
	}
	store, errEnsure := m.ensureRedis(ctx, cfg)
	if errEnsure != nil {
		m.tripBreaker(errEnsure, now)
		return nil, false
	}
	return store, store != nil
}

func (m *Manager) isBreakerActive(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.breakerUntil.IsZero() {
		return false
	}
	if now.Before(m.breakerUntil) {
		return true
	}
	m.breakerUntil = time.Time{}
	return false
}

func (m *Manager) tripBreaker(err error, now time.Time) {
	if err == nil || m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(redisBreakerDuration)
	log.WithError(err).Warn("session: redis unavailable, falling back to memory")
}

func (m *Manager) ensureRedis(ctx context.Context, cfg RedisSettings) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("session redis: missing address")
	}

	nextCfg := redisConfig{
		addr:     addr,
		password: strings.TrimSpace(cfg.Password),
		prefix:   strings.TrimSpace(cfg.Prefix),
		db:       cfg.DB,
	}
	if nextCfg.db < 0 {
		nextCfg.db = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.redisStore != nil && m.redisCfg == nextCfg {
		return m.redisStore, nil
	}
	if m.redisStore != nil {
		_ = m.redisStore.client.Close()
		m.redisStore = nil
	}

	client := m.newRedisClient(&redis.Options{
		Addr:     nextCfg.addr,
		Password: nextCfg.password,
		DB:       nextCfg.db,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	m.redisStore = NewRedisStore(client, nextCfg.prefix, m.ttl)
	m.redisCfg = nextCfg
	return m.redisStore, nil
}
