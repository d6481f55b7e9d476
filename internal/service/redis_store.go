package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/radcr/radcr-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements SessionStore and DraftStore on Redis.
type RedisStore struct {
	rdb      *redis.Client
	draftTTL time.Duration
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(rdb *redis.Client, draftTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, draftTTL: draftTTL}
}

// ─── Sessions ──────────────────────────────────────────────────────────

func (s *RedisStore) SetSession(ctx context.Context, userID int, jti string, ttl time.Duration) error {
	return s.rdb.Set(ctx, config.CacheKey.UserSessionKey(userID), jti, ttl).Err()
}

// GetSession returns "" when the user has no active session.
func (s *RedisStore) GetSession(ctx context.Context, userID int) (string, error) {
	jti, err := s.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return jti, err
}

func (s *RedisStore) DeleteSession(ctx context.Context, userID int) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}

// ─── Answer drafts ─────────────────────────────────────────────────────

// PutDraft caches the draft and pushes it on the autosave queue in one pipeline.
func (s *RedisStore) PutDraft(ctx context.Context, d AnswerDraft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.AnswerDraftKey(d.QuestionnaireID.String()), payload, s.draftTTL)
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

// GetDraft returns nil when no draft is cached.
func (s *RedisStore) GetDraft(ctx context.Context, questionnaireID uuid.UUID) (*AnswerDraft, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.AnswerDraftKey(questionnaireID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}

	var d AnswerDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// deleteDraftAt drops the cached draft only when its saved_at matches, so a
// newer autosave stored in the meantime survives.
var deleteDraftAt = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
if cjson.decode(raw).saved_at == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisStore) DeleteDraftAt(ctx context.Context, questionnaireID uuid.UUID, savedAt time.Time) error {
	key := config.CacheKey.AnswerDraftKey(questionnaireID.String())
	return deleteDraftAt.Run(ctx, s.rdb, []string{key}, savedAt.Format(time.RFC3339Nano)).Err()
}

func (s *RedisStore) DeleteDraft(ctx context.Context, questionnaireID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.AnswerDraftKey(questionnaireID.String())).Err()
}
