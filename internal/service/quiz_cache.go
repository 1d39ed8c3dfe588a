package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pdf-quiz/internal/cache"
	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuizCacheService reuses generated quizzes for identical uploads.
type QuizCacheService interface {
	// GetOrGenerate returns the cached quiz for doc or runs generate once per concurrent key.
	// Generation failures are never cached.
	GetOrGenerate(ctx context.Context, doc *domain.Document, generate func(context.Context) (*domain.Quiz, error)) (*domain.Quiz, error)
}

type quizCacheServiceImpl struct {
	cache    domain.Cache
	ttl      time.Duration
	settings []string
	sfGroup  singleflight.Group
}

// NewQuizCacheService creates the cache. settings distinguish quizzes generated from the
// same document under different variants or modes.
func NewQuizCacheService(c domain.Cache, ttl time.Duration, settings ...string) QuizCacheService {
	if c == nil {
		logger.Get().Warn("QuizCacheService initialized with nil cache. Quizzes will not be reused.")
		return &noopQuizCacheService{}
	}
	return &quizCacheServiceImpl{
		cache:    c,
		ttl:      ttl,
		settings: append(append([]string{}, settings...), domain.SchemaVersion),
	}
}

func (s *quizCacheServiceImpl) generateKey(documentHash string) string {
	return cache.QuizKey(documentHash, s.settings...)
}

func (s *quizCacheServiceImpl) GetOrGenerate(ctx context.Context, doc *domain.Document, generate func(context.Context) (*domain.Quiz, error)) (*domain.Quiz, error) {
	if doc == nil || doc.Hash == "" {
		return generate(ctx)
	}
	key := s.generateKey(doc.Hash)

	if quiz, ok := s.get(ctx, key); ok {
		logger.Get().Info("Quiz cache hit", zap.String("key", key))
		return quiz, nil
	}

	res, err, shared := s.sfGroup.Do(key, func() (interface{}, error) {
		quiz, err := generate(ctx)
		if err != nil {
			return nil, err
		}
		s.put(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Get().Debug("Quiz generation shared between concurrent requests", zap.String("key", key))
	}

	if quiz, ok := res.(*domain.Quiz); ok {
		return quiz, nil
	}
	return nil, fmt.Errorf("unexpected type from singleflight.Do for quiz: %T", res)
}

// get treats every cache failure as a miss.
func (s *quizCacheServiceImpl) get(ctx context.Context, key string) (*domain.Quiz, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Error("Failed to get quiz from cache", zap.Error(err), zap.String("key", key))
		}
		return nil, false
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(data), &quiz); err != nil {
		logger.Get().Error("Failed to unmarshal cached quiz", zap.Error(err), zap.String("key", key))
		return nil, false
	}
	if quiz.SchemaVersion != domain.SchemaVersion || quiz.IsEmpty() {
		return nil, false
	}
	return &quiz, true
}

func (s *quizCacheServiceImpl) put(ctx context.Context, key string, quiz *domain.Quiz) {
	data, err := json.Marshal(quiz)
	if err != nil {
		logger.Get().Error("Failed to marshal quiz for caching", zap.Error(err), zap.String("key", key))
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Error("Failed to cache quiz", zap.Error(err), zap.String("key", key))
		return
	}
	logger.Get().Debug("Successfully cached quiz", zap.String("key", key), zap.Duration("ttl", s.ttl))
}

type noopQuizCacheService struct{}

func (s *noopQuizCacheService) GetOrGenerate(ctx context.Context, _ *domain.Document, generate func(context.Context) (*domain.Quiz, error)) (*domain.Quiz, error) {
	return generate(ctx)
}
