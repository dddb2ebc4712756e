package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-quiz/internal/platform/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/result"
)

var ErrStopped = errors.New("session runner stopped")

// Catalog supplies the ordered question list for a material.
type Catalog interface {
	ListQuestions(ctx context.Context, materialID string) ([]quiz.Question, error)
}

// Grader grades one answer for the session's learner.
type Grader interface {
	Grade(ctx context.Context, quizID string, selected quiz.Label) (quiz.Verdict, error)
}

type Config struct {
	LearnerID  string
	MaterialID string
	Budget     int // seconds; DefaultSeconds when zero
	// Parallelism bounds concurrent grading calls on submit. Verdict order
	// always follows question order.
	Parallelism int
	Clock       Clock
	Log         *logger.Logger
}

type eventKind int

const (
	evSelect eventKind = iota
	evAdvance
	evSubmit
	evRestart
	evSnapshot
	evGraded
)

type reply struct {
	s   Session
	err error
}

type event struct {
	kind     eventKind
	label    quiz.Label
	dir      Direction
	verdicts []result.Verdict
	reply    chan reply
}

// Runner owns one Session and applies every event to it on a single
// goroutine, so transitions never overlap. Grading runs off the loop and
// reports back through an event; a submit arriving meanwhile sees Submitting.
type Runner struct {
	cfg     Config
	catalog Catalog
	grader  Grader
	log     *logger.Logger

	events    chan event
	done      chan struct{}
	completed chan Session
}

func NewRunner(catalog Catalog, grader Grader, cfg Config) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		catalog:   catalog,
		grader:    grader,
		log:       log.With("service", "SessionRunner", "learner_id", cfg.LearnerID, "material_id", cfg.MaterialID),
		events:    make(chan event),
		done:      make(chan struct{}),
		completed: make(chan Session, 1),
	}
}

// Completed delivers the session each time a submission finishes, whether it
// was started by Submit or by the countdown.
func (r *Runner) Completed() <-chan Session { return r.completed }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run loads the quiz and processes events until ctx is cancelled. Cancelling
// before a submission discards the session without touching the ledger.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	s, err := r.load(ctx, New(r.cfg.LearnerID, r.cfg.MaterialID, r.cfg.Budget))
	if err != nil {
		return err
	}
	r.log.Info("session started", "questions", len(s.Questions), "budget", s.Budget)

	ticker := r.cfg.Clock.NewTicker(time.Second)
	defer ticker.Stop()

	var waiters []chan reply
	for {
		select {
		case <-ctx.Done():
			if s.State != StateCompleted {
				r.log.Info("session discarded", "state", s.State, "answered", len(s.Answers))
			}
			return ctx.Err()

		case <-ticker.C():
			next, expired := s.Tick()
			s = next
			if expired {
				r.log.Info("countdown expired, submitting")
				s, _ = r.submit(ctx, s)
			}

		case ev := <-r.events:
			switch ev.kind {
			case evSubmit:
				next, err := r.submit(ctx, s)
				s = next
				if err != nil {
					ev.reply <- reply{s: s.Clone(), err: err}
					continue
				}
				waiters = append(waiters, ev.reply)
			case evGraded:
				next, err := s.Complete(ev.verdicts)
				if err != nil {
					r.log.Error("complete submission", "error", err)
				}
				s = next
				for _, w := range waiters {
					w <- reply{s: s.Clone(), err: err}
				}
				waiters = nil
				if err == nil {
					r.notifyCompleted(s.Clone())
				}
			default:
				next, err := r.apply(ctx, s, ev)
				s = next
				ev.reply <- reply{s: s.Clone(), err: err}
			}
		}
	}
}

func (r *Runner) load(ctx context.Context, s Session) (Session, error) {
	qs, err := r.catalog.ListQuestions(ctx, s.MaterialID)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return s.Loaded(qs)
}

func (r *Runner) apply(ctx context.Context, s Session, ev event) (Session, error) {
	switch ev.kind {
	case evSelect:
		return s.SelectAnswer(ev.label)
	case evAdvance:
		return s.Advance(ev.dir)
	case evSnapshot:
		return s, nil
	case evRestart:
		loading, err := s.Restart()
		if err != nil {
			return s, err
		}
		next, err := r.load(ctx, loading)
		if err != nil {
			// keep the completed session so the learner still sees the result
			return s, err
		}
		r.log.Info("session restarted", "questions", len(next.Questions))
		return next, nil
	}
	return s, fmt.Errorf("unknown event %d", ev.kind)
}

// submit is the single entry to grading for both manual and timed submission.
func (r *Runner) submit(ctx context.Context, s Session) (Session, error) {
	next, err := s.BeginSubmit()
	if err != nil {
		return next, err
	}
	if n := next.Unanswered(); n > 0 {
		r.log.Warn("submitting with unanswered questions", "unanswered", n)
	}
	questions := next.Questions
	plan := next.Plan()
	go func() {
		verdicts := r.gradeAll(ctx, questions, plan)
		select {
		case r.events <- event{kind: evGraded, verdicts: verdicts}:
		case <-ctx.Done():
		}
	}()
	return next, nil
}

func (r *Runner) gradeAll(ctx context.Context, questions []quiz.Question, plan []Item) []result.Verdict {
	verdicts := make([]result.Verdict, len(questions))
	for i, q := range questions {
		verdicts[i] = result.Unanswered(q)
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.Parallelism)
	for _, it := range plan {
		it := it
		g.Go(func() error {
			v, err := r.grader.Grade(ctx, it.Question.ID, it.Selected)
			if err != nil {
				// counts as unanswered; the other items still grade
				r.log.Warn("grading failed", "quiz_id", it.Question.ID, "error", err)
				verdicts[it.Index] = result.Failed(it.Question)
				return nil
			}
			verdicts[it.Index] = result.Verdict{
				QuestionID: it.Question.ID,
				Question:   it.Question.Text,
				Selected:   it.Selected,
				Correct:    v.Correct,
				IsCorrect:  v.IsCorrect,
				Feedback:   v.Feedback,
			}
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

func (r *Runner) notifyCompleted(s Session) {
	select {
	case r.completed <- s:
	default:
		// drop the stale one so the latest completion wins
		select {
		case <-r.completed:
		default:
		}
		select {
		case r.completed <- s:
		default:
		}
	}
}

func (r *Runner) send(ctx context.Context, ev event) (Session, error) {
	ev.reply = make(chan reply, 1)
	select {
	case r.events <- ev:
	case <-r.done:
		return Session{}, ErrStopped
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
	select {
	case rep := <-ev.reply:
		return rep.s, rep.err
	case <-r.done:
		return Session{}, ErrStopped
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

func (r *Runner) Select(ctx context.Context, label quiz.Label) (Session, error) {
	return r.send(ctx, event{kind: evSelect, label: label})
}

func (r *Runner) Advance(ctx context.Context, dir Direction) (Session, error) {
	return r.send(ctx, event{kind: evAdvance, dir: dir})
}

// Submit grades the buffered answers and blocks until the session completes.
// A call made while another submission is in flight fails with
// ErrAlreadySubmitting and triggers no grading.
func (r *Runner) Submit(ctx context.Context) (Session, error) {
	return r.send(ctx, event{kind: evSubmit})
}

func (r *Runner) Restart(ctx context.Context) (Session, error) {
	return r.send(ctx, event{kind: evRestart})
}

func (r *Runner) Snapshot(ctx context.Context) (Session, error) {
	return r.send(ctx, event{kind: evSnapshot})
}
