package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/platform/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

var ErrNoLearner = errors.New("learner identity required")

// Service grades one answer at a time and appends an Attempt per call.
// Grade is safe to retry but every retry adds another ledger row.
type Service struct {
	catalog quiz.Catalog
	ledger  quiz.Ledger
	events  syncx.Publisher
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithEvents(p syncx.Publisher) Option   { return func(s *Service) { s.events = p } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithIDs(fn func() string) Option       { return func(s *Service) { s.newID = fn } }

func NewService(catalog quiz.Catalog, ledger quiz.Ledger, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		catalog: catalog,
		ledger:  ledger,
		log:     log.With("service", "GradingService"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func Feedback(correct quiz.Label, isCorrect bool) string {
	if isCorrect {
		return "Correct!"
	}
	return "Incorrect. The correct answer is " + string(correct) + "."
}

func (s *Service) Grade(ctx context.Context, learnerID, quizID string, selected quiz.Label) (quiz.Verdict, error) {
	if learnerID == "" {
		return quiz.Verdict{}, ErrNoLearner
	}
	q, err := s.catalog.GetQuestion(ctx, quizID)
	if err != nil {
		return quiz.Verdict{}, fmt.Errorf("load question %s: %w", quizID, err)
	}

	isCorrect := selected == q.CorrectOption
	a := quiz.Attempt{
		ID:        s.newID(),
		LearnerID: learnerID,
		QuizID:    q.ID,
		Selected:  selected,
		IsCorrect: isCorrect,
		CreatedAt: s.now(),
	}
	if err := s.ledger.AppendAttempt(ctx, a); err != nil {
		return quiz.Verdict{}, fmt.Errorf("record attempt: %w", err)
	}
	s.publish(ctx, a)

	return quiz.Verdict{
		Correct:   q.CorrectOption,
		IsCorrect: isCorrect,
		Feedback:  Feedback(q.CorrectOption, isCorrect),
		Question:  q.Text,
	}, nil
}

func (s *Service) publish(ctx context.Context, a quiz.Attempt) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	e := syncx.Event{
		Type:      syncx.TypeAttemptRecorded,
		Key:       a.ID,
		DataJSON:  string(data),
		CreatedAt: a.CreatedAt.Unix(),
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("attempt event not published", "attempt_id", a.ID, "error", err)
	}
}

// LearnerGrader binds the service to one authenticated caller.
type LearnerGrader struct {
	svc       *Service
	learnerID string
}

func (s *Service) ForLearner(learnerID string) LearnerGrader {
	return LearnerGrader{svc: s, learnerID: learnerID}
}

func (g LearnerGrader) Grade(ctx context.Context, quizID string, selected quiz.Label) (quiz.Verdict, error) {
	return g.svc.Grade(ctx, g.learnerID, quizID, selected)
}
