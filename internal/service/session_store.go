package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pdf-quiz/internal/cache"
	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/logger"

	"go.uber.org/zap"
)

// SessionStore persists sessions and their selections in the cache.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	// Load returns a SESSION_NOT_FOUND error for unknown or expired sessions.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	SaveSelection(ctx context.Context, sessionID, key, option string) error
	Selections(ctx context.Context, sessionID string) (domain.Selections, error)
}

type sessionStoreImpl struct {
	cache domain.Cache
	ttl   time.Duration
}

func NewSessionStore(c domain.Cache, ttl time.Duration) SessionStore {
	return &sessionStoreImpl{cache: c, ttl: ttl}
}

func (s *sessionStoreImpl) Save(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return domain.NewInvalidInputError("cannot store nil session")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return domain.NewInternalError("failed to marshal session", err)
	}

	key := cache.SessionKey(session.ID)
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Error("Failed to store session", zap.Error(err), zap.String("key", key))
		return domain.NewInternalError("failed to store session", err)
	}
	// Selections live under their own key and must expire with the session.
	if err := s.cache.Expire(ctx, cache.SelectionsKey(session.ID), s.ttl); err != nil {
		logger.Get().Warn("Failed to refresh selections TTL", zap.Error(err), zap.String("sessionID", session.ID))
	}
	return nil
}

func (s *sessionStoreImpl) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	key := cache.SessionKey(sessionID)
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.NewSessionNotFoundError(sessionID)
		}
		logger.Get().Error("Failed to load session", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError("failed to load session", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		logger.Get().Error("Failed to unmarshal session", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError("failed to unmarshal session", err)
	}
	return &session, nil
}

func (s *sessionStoreImpl) SaveSelection(ctx context.Context, sessionID, key, option string) error {
	hashKey := cache.SelectionsKey(sessionID)
	if err := s.cache.HSet(ctx, hashKey, key, option); err != nil {
		logger.Get().Error("Failed to store selection", zap.Error(err), zap.String("key", hashKey))
		return domain.NewInternalError("failed to store selection", err)
	}
	if err := s.cache.Expire(ctx, hashKey, s.ttl); err != nil {
		logger.Get().Warn("Failed to set selections TTL", zap.Error(err), zap.String("key", hashKey))
	}
	return nil
}

func (s *sessionStoreImpl) Selections(ctx context.Context, sessionID string) (domain.Selections, error) {
	hashKey := cache.SelectionsKey(sessionID)
	fields, err := s.cache.HGetAll(ctx, hashKey)
	if err != nil {
		logger.Get().Error("Failed to load selections", zap.Error(err), zap.String("key", hashKey))
		return nil, domain.NewInternalError("failed to load selections", err)
	}
	selections := make(domain.Selections, len(fields))
	for k, v := range fields {
		selections[k] = v
	}
	return selections, nil
}
