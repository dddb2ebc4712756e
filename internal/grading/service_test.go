package grading

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

/* ---------------- fakes ---------------- */

type fakeCatalog map[string]quiz.Question

func (f fakeCatalog) ListQuestions(_ context.Context, materialID string) ([]quiz.Question, error) {
	var out []quiz.Question
	for _, q := range f {
		if q.MaterialID == materialID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f fakeCatalog) GetQuestion(_ context.Context, id string) (quiz.Question, error) {
	q, ok := f[id]
	if !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return q, nil
}

type fakeLedger struct {
	rows []quiz.Attempt
	err  error
}

func (f *fakeLedger) AppendAttempt(_ context.Context, a quiz.Attempt) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, a)
	return nil
}

func (f *fakeLedger) ListAttempts(context.Context, string, string) ([]quiz.AttemptView, error) {
	return nil, nil
}

type fakeEvents struct{ got []syncx.Event }

func (f *fakeEvents) Publish(_ context.Context, e syncx.Event) error {
	f.got = append(f.got, e)
	return errors.New("publish always fails here")
}

func newTestService(cat fakeCatalog, led *fakeLedger, opts ...Option) *Service {
	n := 0
	base := []Option{
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
		WithIDs(func() string { n++; return "att-" + strconv.Itoa(n) }),
	}
	return NewService(cat, led, nil, append(base, opts...)...)
}

/* ---------------- tests ---------------- */

func TestGradeCorrectAndIncorrect(t *testing.T) {
	cat := fakeCatalog{
		"q1": {ID: "q1", Text: "Pick C", CorrectOption: quiz.LabelC},
		"q2": {ID: "q2", Text: "Pick B", CorrectOption: quiz.LabelB},
	}
	led := &fakeLedger{}
	svc := newTestService(cat, led)
	ctx := context.Background()

	v, err := svc.Grade(ctx, "u1", "q1", quiz.LabelC)
	if err != nil {
		t.Fatalf("grade q1: %v", err)
	}
	if !v.IsCorrect || v.Feedback != "Correct!" || v.Correct != quiz.LabelC || v.Question != "Pick C" {
		t.Fatalf("unexpected verdict: %+v", v)
	}

	v, err = svc.Grade(ctx, "u1", "q2", quiz.LabelC)
	if err != nil {
		t.Fatalf("grade q2: %v", err)
	}
	if v.IsCorrect || v.Feedback != "Incorrect. The correct answer is B." {
		t.Fatalf("unexpected verdict: %+v", v)
	}

	if len(led.rows) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(led.rows))
	}
	a := led.rows[1]
	if a.ID != "att-2" || a.LearnerID != "u1" || a.QuizID != "q2" || a.Selected != quiz.LabelC || a.IsCorrect {
		t.Fatalf("unexpected attempt row: %+v", a)
	}
}

func TestGradeIsCaseSensitive(t *testing.T) {
	svc := newTestService(fakeCatalog{"q1": {ID: "q1", CorrectOption: quiz.LabelC}}, &fakeLedger{})
	v, err := svc.Grade(context.Background(), "u1", "q1", quiz.Label("c"))
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if v.IsCorrect {
		t.Fatal("lower-case label must not match")
	}
}

func TestGradeRetryAppendsAgain(t *testing.T) {
	led := &fakeLedger{}
	svc := newTestService(fakeCatalog{"q1": {ID: "q1", CorrectOption: quiz.LabelA}}, led)
	for i := 0; i < 3; i++ {
		if _, err := svc.Grade(context.Background(), "u1", "q1", quiz.LabelA); err != nil {
			t.Fatalf("grade %d: %v", i, err)
		}
	}
	if len(led.rows) != 3 {
		t.Fatalf("expected one row per call, got %d", len(led.rows))
	}
}

func TestGradeErrors(t *testing.T) {
	led := &fakeLedger{}
	svc := newTestService(fakeCatalog{"q1": {ID: "q1", CorrectOption: quiz.LabelA}}, led)
	ctx := context.Background()

	if _, err := svc.Grade(ctx, "u1", "missing", quiz.LabelA); !errors.Is(err, quiz.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, err := svc.Grade(ctx, "", "q1", quiz.LabelA); !errors.Is(err, ErrNoLearner) {
		t.Fatalf("expected ErrNoLearner, got %v", err)
	}
	if len(led.rows) != 0 {
		t.Fatalf("failed grading must not write: %d rows", len(led.rows))
	}

	led.err = errors.New("disk full")
	if _, err := svc.Grade(ctx, "u1", "q1", quiz.LabelA); err == nil {
		t.Fatal("expected ledger error to surface")
	}
}

func TestGradePublishFailureDoesNotFailGrade(t *testing.T) {
	ev := &fakeEvents{}
	led := &fakeLedger{}
	svc := newTestService(fakeCatalog{"q1": {ID: "q1", CorrectOption: quiz.LabelA}}, led, WithEvents(ev))
	if _, err := svc.ForLearner("u9").Grade(context.Background(), "q1", quiz.LabelB); err != nil {
		t.Fatalf("grade: %v", err)
	}
	if len(ev.got) != 1 || ev.got[0].Type != syncx.TypeAttemptRecorded || ev.got[0].Key != "att-1" {
		t.Fatalf("unexpected events: %+v", ev.got)
	}
	if len(led.rows) != 1 || led.rows[0].LearnerID != "u9" {
		t.Fatalf("attempt not bound to learner: %+v", led.rows)
	}
}

type slowPublisher struct {
	release chan struct{}
	once    sync.Once
	got     chan syncx.Event
}

func (s *slowPublisher) unblock() { s.once.Do(func() { close(s.release) }) }

func (s *slowPublisher) Publish(_ context.Context, e syncx.Event) error {
	<-s.release
	s.got <- e
	return nil
}

func TestGradeDoesNotWaitForSlowPublisher(t *testing.T) {
	slow := &slowPublisher{release: make(chan struct{}), got: make(chan syncx.Event, 1)}
	fwd := syncx.NewAsync(nil, slow, 8, time.Second)
	defer func() {
		slow.unblock()
		_ = fwd.Close()
	}()
	led := &fakeLedger{}
	svc := newTestService(fakeCatalog{"q1": {ID: "q1", CorrectOption: quiz.LabelA}}, led,
		WithEvents(syncx.Multi{fwd}))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Grade(context.Background(), "u1", "q1", quiz.LabelA)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("grade waited on the publisher")
	}
	if len(led.rows) != 1 {
		t.Fatalf("attempt must be recorded before the verdict returns: %d rows", len(led.rows))
	}

	slow.unblock()
	select {
	case e := <-slow.got:
		if e.Type != syncx.TypeAttemptRecorded || e.Key != "att-1" {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("event never forwarded")
	}
}
