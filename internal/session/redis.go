package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Hash fields used for a session key.
const (
	fieldUserID     = "user_id"
	fieldIsAdmin    = "is_admin"
	fieldAnalysisMS = "analysis_started_at_ms"
)

// beginAnalysisScript checks the cooldown window and records the new start
// timestamp in one round trip, so two concurrent calls from the same session
// cannot both pass the check.
var beginAnalysisScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return {-1, 0}
end
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local last = tonumber(redis.call("HGET", KEYS[1], "analysis_started_at_ms") or "0")
if last > 0 and last + window > now then
  return {0, last + window}
end
redis.call("HSET", KEYS[1], "analysis_started_at_ms", now)
return {1, now + window}
`)

// RedisStore implements a session store backed by Redis hashes.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: strings.TrimSpace(prefix),
		ttl:    ttl,
	}
}

// Get returns the session state for the id, if present.
func (s *RedisStore) Get(ctx context.Context, id string) (Data, bool, error) {
	if s == nil || s.client == nil || id == "" {
		return Data{}, false, nil
	}
	fields, errGet := s.client.HGetAll(ctx, s.buildKey(id)).Result()
	if errGet != nil {
		return Data{}, false, errGet
	}
	if len(fields) == 0 {
		return Data{}, false, nil
	}
	data := Data{}
	if raw, ok := fields[fieldUserID]; ok {
		data.UserID, _ = strconv.ParseUint(raw, 10, 64)
	}
	if raw, ok := fields[fieldIsAdmin]; ok {
		data.IsAdmin = raw == "1"
	}
	if raw, ok := fields[fieldAnalysisMS]; ok {
		data.AnalysisStartedAtMS, _ = strconv.ParseInt(raw, 10, 64)
	}
	return data, true, nil
}

// Put stores the session state for the id, refreshing its expiry.
func (s *RedisStore) Put(ctx context.Context, id string, data Data) error {
	if s == nil || s.client == nil {
		return errors.New("session redis: not initialized")
	}
	if id == "" {
		return ErrNotFound
	}
	key := s.buildKey(id)
	isAdmin := "0"
	if data.IsAdmin {
		isAdmin = "1"
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldUserID, strconv.FormatUint(data.UserID, 10),
		fieldIsAdmin, isAdmin,
		fieldAnalysisMS, strconv.FormatInt(data.AnalysisStartedAtMS, 10),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, errExec := pipe.Exec(ctx)
	return errExec
}

// Delete removes the session state for the id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.client == nil || id == "" {
		return nil
	}
	return s.client.Del(ctx, s.buildKey(id)).Err()
}

// BeginAnalysis atomically checks the cooldown and records the new start timestamp.
func (s *RedisStore) BeginAnalysis(ctx context.Context, id string, nowMS, windowMS int64) (BeginResult, error) {
	if s == nil || s.client == nil {
		return BeginResult{}, errors.New("session redis: not initialized")
	}
	if id == "" {
		return BeginResult{}, ErrNotFound
	}
	res, errEval := beginAnalysisScript.Run(ctx, s.client, []string{s.buildKey(id)}, nowMS, windowMS).Result()
	if errEval != nil {
		return BeginResult{}, errEval
	}
	values, ok := res.([]any)
	if !ok || len(values) != 2 {
		return BeginResult{}, errors.New("session redis: unexpected response shape")
	}
	state, errState := toInt64(values[0])
	if errState != nil {
		return BeginResult{}, errState
	}
	boundary, errBoundary := toInt64(values[1])
	if errBoundary != nil {
		return BeginResult{}, errBoundary
	}
	switch state {
	case -1:
		return BeginResult{}, ErrNotFound
	case 0:
		return BeginResult{Allowed: false, BlockedUntil: boundary}, nil
	default:
		return BeginResult{Allowed: true, BlockedUntil: boundary}, nil
	}
}

func (s *RedisStore) buildKey(id string) string {
	if s.prefix == "" {
		return id
	}
	return s.prefix + ":" + id
}

func toInt64(v any) (int64, error) {
	switch value := v.(type) {
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case uint64:
		return int64(value), nil
	default:
		return 0, errors.New("session redis: unexpected response type")
	}
}
