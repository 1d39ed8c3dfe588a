package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/logger"
	"pdf-quiz/internal/util"

	"go.uber.org/zap"
)

// QuizSessionService drives a session from upload to score.
type QuizSessionService interface {
	// StartSession ingests the upload and generates the quiz. A generation failure is
	// recorded on the returned session; only extraction and storage failures are errors.
	StartSession(ctx context.Context, upload domain.Upload) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error)
	// Present marks a generated quiz as shown. It is a no-op for sessions already past that point.
	Present(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error)
	SelectOption(ctx context.Context, sessionID, key, option string) error
	// Submit merges the final selections into the stored ones and scores the quiz.
	Submit(ctx context.Context, sessionID string, final domain.Selections) (*domain.Session, domain.Selections, error)
}

type quizSessionService struct {
	ingestor  domain.DocumentIngestor
	generator domain.QuizGenerator
	quizCache QuizCacheService
	store     SessionStore
	newID     func() string
}

func NewQuizSessionService(
	ingestor domain.DocumentIngestor,
	generator domain.QuizGenerator,
	quizCache QuizCacheService,
	store SessionStore,
) QuizSessionService {
	if quizCache == nil {
		quizCache = &noopQuizCacheService{}
	}
	return &quizSessionService{
		ingestor:  ingestor,
		generator: generator,
		quizCache: quizCache,
		store:     store,
		newID:     util.NewULID,
	}
}

func (s *quizSessionService) StartSession(ctx context.Context, upload domain.Upload) (*domain.Session, error) {
	session := domain.NewSession(s.newID())
	if err := session.Transition(domain.StateUploaded); err != nil {
		return nil, err
	}
	log := logger.Get().With(zap.String("sessionID", session.ID), zap.String("filename", upload.Filename))

	doc, err := s.ingestor.Ingest(ctx, upload)
	if err != nil {
		log.Warn("Document ingestion failed", zap.Error(err))
		return nil, err
	}
	session.DocumentName = doc.Name
	session.DocumentHash = doc.Hash
	session.PageCount = len(doc.Pages)
	if err := session.Transition(domain.StateExtracted); err != nil {
		return nil, err
	}

	if err := session.Transition(domain.StateGenerating); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	quiz, err := s.quizCache.GetOrGenerate(ctx, doc, func(ctx context.Context) (*domain.Quiz, error) {
		return s.generator.GenerateFromDocument(ctx, doc)
	})
	if err == nil && quiz.IsEmpty() {
		err = domain.NewGenerationError(domain.KindMalformedOutput, "model returned no questions", nil)
	}

	if err != nil {
		var genErr *domain.GenerationError
		if !errors.As(err, &genErr) {
			genErr = domain.NewGenerationError(domain.KindInvocation, "quiz generation failed", err)
		}
		log.Warn("Quiz generation failed", zap.String("kind", string(genErr.Kind)), zap.Error(err))
		session.GenerationError = genErr
		if err := session.Transition(domain.StateGenerationFailed); err != nil {
			return nil, err
		}
	} else {
		session.Quiz = quiz
		if err := session.Transition(domain.StateGenerated); err != nil {
			return nil, err
		}
		log.Info("Quiz generated",
			zap.Int("groups", len(quiz.Groups)),
			zap.Int("questions", quiz.TotalQuestions()))
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *quizSessionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	selections, err := s.store.Selections(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, selections, nil
}

func (s *quizSessionService) Present(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error) {
	session, selections, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	switch session.State {
	case domain.StateGenerated:
		if err := session.Transition(domain.StatePresented); err != nil {
			return nil, nil, err
		}
		if err := s.store.Save(ctx, session); err != nil {
			return nil, nil, err
		}
	case domain.StatePresented, domain.StateSubmitted, domain.StateGenerationFailed:
	default:
		return nil, nil, domain.NewError(domain.CodeInvalidState,
			fmt.Sprintf("session %s has no quiz to present yet", sessionID), nil).
			WithContext("state", string(session.State))
	}
	return session, selections, nil
}

func (s *quizSessionService) SelectOption(ctx context.Context, sessionID, key, option string) error {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.State != domain.StatePresented {
		return domain.NewError(domain.CodeInvalidState, "selections can only be changed while the quiz is presented", nil).
			WithContext("state", string(session.State))
	}
	if err := validateSelection(session.Quiz, key, option); err != nil {
		return err
	}
	return s.store.SaveSelection(ctx, sessionID, key, option)
}

func (s *quizSessionService) Submit(ctx context.Context, sessionID string, final domain.Selections) (*domain.Session, domain.Selections, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	// A generated quiz that was never fetched can still be submitted in one step.
	if session.State == domain.StateGenerated {
		if err := session.Transition(domain.StatePresented); err != nil {
			return nil, nil, err
		}
	}
	if !session.State.CanTransition(domain.StateSubmitted) {
		return nil, nil, domain.NewInvalidStateError(session.State, domain.StateSubmitted)
	}

	for key, option := range final {
		if err := validateSelection(session.Quiz, key, option); err != nil {
			return nil, nil, err
		}
	}
	for key, option := range final {
		if err := s.store.SaveSelection(ctx, sessionID, key, option); err != nil {
			return nil, nil, err
		}
	}

	selections, err := s.store.Selections(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	report := domain.Score(session.Quiz, selections)
	session.Report = &report
	if err := session.Transition(domain.StateSubmitted); err != nil {
		return nil, nil, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, nil, err
	}

	logger.Get().Info("Quiz submitted",
		zap.String("sessionID", sessionID),
		zap.Int("score", report.Score),
		zap.Int("total", report.Total))
	return session, selections, nil
}

func validateSelection(quiz *domain.Quiz, key, option string) error {
	question, ok := quiz.FindQuestion(key)
	if !ok {
		return domain.ValidationErrors{domain.NewInvalidFormatError("key", key)}
	}
	if !slices.Contains(question.Options, option) {
		return domain.ValidationErrors{{
			Code:    domain.CodeInvalidInput,
			Field:   "option",
			Message: fmt.Sprintf("option is not one of the choices for %s", key),
			Value:   option,
		}}
	}
	return nil
}
