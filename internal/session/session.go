// Package session drives one learner through one material's quiz.
//
// Session is a value. Every transition is a method that returns a new Session
// and never mutates the receiver, so a runner can keep the previous state when a
// transition fails. All I/O (catalog fetch, grading) lives in Runner.
package session

import (
	"errors"
	"fmt"
	"maps"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/result"
)

// DefaultSeconds is the time budget of one session.
const DefaultSeconds = 900

var (
	ErrCatalogUnavailable = errors.New("no quiz available")
	ErrAlreadySubmitting  = errors.New("submission already in progress")
	ErrInvalidState       = errors.New("operation not valid in current state")
	ErrInvalidLabel       = errors.New("answer must be one of A, B, C, D")
)

type State string

const (
	StateLoading    State = "loading"
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
)

type Direction int

const (
	Next Direction = iota
	Previous
)

type Session struct {
	LearnerID  string
	MaterialID string
	State      State

	// Questions is fixed when the session becomes Active and is the exact list
	// graded on submit.
	Questions []quiz.Question
	Position  int
	Answers   map[int]quiz.Label
	Countdown int
	Budget    int

	Result *result.Result
}

// New returns a Loading session.
func New(learnerID, materialID string, budget int) Session {
	if budget <= 0 {
		budget = DefaultSeconds
	}
	return Session{
		LearnerID:  learnerID,
		MaterialID: materialID,
		State:      StateLoading,
		Budget:     budget,
	}
}

func (s Session) Completed() bool { return s.State == StateCompleted }

func (s Session) invalid(op string) error {
	return fmt.Errorf("%s in %s: %w", op, s.State, ErrInvalidState)
}

// Loaded moves Loading -> Active with a clean slate.
func (s Session) Loaded(questions []quiz.Question) (Session, error) {
	if s.State != StateLoading {
		return s, s.invalid("load")
	}
	if len(questions) == 0 {
		return s, ErrCatalogUnavailable
	}
	s.Questions = append([]quiz.Question(nil), questions...)
	s.Position = 0
	s.Answers = map[int]quiz.Label{}
	s.Countdown = s.Budget
	s.Result = nil
	s.State = StateActive
	return s, nil
}

// Current is the question at Position. Only meaningful once loaded.
func (s Session) Current() quiz.Question {
	if s.Position < 0 || s.Position >= len(s.Questions) {
		return quiz.Question{}
	}
	return s.Questions[s.Position]
}

// Selected returns the buffered answer for the current position.
func (s Session) Selected() (quiz.Label, bool) {
	l, ok := s.Answers[s.Position]
	return l, ok
}

func (s Session) Unanswered() int { return len(s.Questions) - len(s.Answers) }

func (s Session) SelectAnswer(label quiz.Label) (Session, error) {
	if s.State != StateActive {
		return s, s.invalid("select")
	}
	if !label.Valid() {
		return s, fmt.Errorf("%q: %w", label, ErrInvalidLabel)
	}
	answers := maps.Clone(s.Answers)
	if answers == nil {
		answers = map[int]quiz.Label{}
	}
	answers[s.Position] = label
	s.Answers = answers
	return s, nil
}

// Advance moves one question in dir. The ends are clamped, not errors.
func (s Session) Advance(dir Direction) (Session, error) {
	if s.State != StateActive {
		return s, s.invalid("advance")
	}
	switch dir {
	case Next:
		if s.Position < len(s.Questions)-1 {
			s.Position++
		}
	case Previous:
		if s.Position > 0 {
			s.Position--
		}
	default:
		return s, fmt.Errorf("unknown direction %d", dir)
	}
	return s, nil
}

// Tick consumes one second. expired reports that the countdown reached zero
// and the caller must submit. Ticks outside Active are ignored.
func (s Session) Tick() (next Session, expired bool) {
	if s.State != StateActive || s.Countdown <= 0 {
		return s, false
	}
	s.Countdown--
	return s, s.Countdown == 0
}

// BeginSubmit moves Active -> Submitting.
func (s Session) BeginSubmit() (Session, error) {
	switch s.State {
	case StateActive:
		s.State = StateSubmitting
		return s, nil
	case StateSubmitting:
		return s, ErrAlreadySubmitting
	default:
		return s, s.invalid("submit")
	}
}

// Item is one answered question to be graded.
type Item struct {
	Index    int
	Question quiz.Question
	Selected quiz.Label
}

// Plan lists answered questions in session order.
func (s Session) Plan() []Item {
	out := make([]Item, 0, len(s.Answers))
	for i, q := range s.Questions {
		if l, ok := s.Answers[i]; ok {
			out = append(out, Item{Index: i, Question: q, Selected: l})
		}
	}
	return out
}

// Complete moves Submitting -> Completed. verdicts must hold one entry per
// question, in session order.
func (s Session) Complete(verdicts []result.Verdict) (Session, error) {
	if s.State != StateSubmitting {
		return s, s.invalid("complete")
	}
	if len(verdicts) != len(s.Questions) {
		return s, fmt.Errorf("complete: got %d verdicts for %d questions", len(verdicts), len(s.Questions))
	}
	r := result.Aggregate(verdicts)
	s.Result = &r
	s.State = StateCompleted
	return s, nil
}

// Restart moves Completed -> Loading. The caller reloads the catalog.
func (s Session) Restart() (Session, error) {
	if s.State != StateCompleted {
		return s, s.invalid("restart")
	}
	return New(s.LearnerID, s.MaterialID, s.Budget), nil
}

// Clone deep-copies the mutable parts so a snapshot can leave the runner.
func (s Session) Clone() Session {
	s.Questions = append([]quiz.Question(nil), s.Questions...)
	s.Answers = maps.Clone(s.Answers)
	if s.Result != nil {
		r := *s.Result
		r.Details = append([]result.Verdict(nil), r.Details...)
		s.Result = &r
	}
	return s
}
