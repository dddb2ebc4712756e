package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

type stepClock struct{ ch chan time.Time }

func (c stepClock) NewTicker(time.Duration) session.Ticker { return c }
func (c stepClock) C() <-chan time.Time                    { return c.ch }
func (c stepClock) Stop()                                  {}

func newLedger(t *testing.T) (*quiz.SQLStore, []quiz.Question) {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	store := quiz.NewSQLStore(dbh, string(db.DriverSQLite))
	qs, err := store.ReplaceMaterial(context.Background(), "m1", []quiz.Question{
		{Text: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "22", CorrectOption: quiz.LabelB},
		{Text: "Capital of France?", OptionA: "Paris", OptionB: "Rome", OptionC: "Oslo", OptionD: "Bern", CorrectOption: quiz.LabelA},
		{Text: "H2O is?", OptionA: "Salt", OptionB: "Sugar", OptionC: "Water", OptionD: "Air", CorrectOption: quiz.LabelC},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store, qs
}

func attemptCount(t *testing.T, store *quiz.SQLStore) int {
	t.Helper()
	views, err := store.ListAttempts(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	return len(views)
}

func runAgainst(t *testing.T, store *quiz.SQLStore) (*session.Runner, context.CancelFunc) {
	t.Helper()
	svc := grading.NewService(store, store, nil)
	r := session.NewRunner(store, svc.ForLearner("u1"), session.Config{
		LearnerID: "u1", MaterialID: "m1", Budget: 60,
		Clock: stepClock{ch: make(chan time.Time)},
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})
	return r, cancel
}

func TestRunnerRestartKeepsLedger(t *testing.T) {
	store, _ := newLedger(t)
	r, _ := runAgainst(t, store)
	ctx := context.Background()

	if _, err := r.Select(ctx, quiz.LabelB); err != nil {
		t.Fatalf("select: %v", err)
	}
	_, _ = r.Advance(ctx, session.Next)
	if _, err := r.Select(ctx, quiz.LabelD); err != nil {
		t.Fatalf("select: %v", err)
	}
	s, err := r.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.Result.CorrectAnswers != 1 || s.Result.AnsweredQuestions != 2 || s.Result.Score != 33 {
		t.Fatalf("unexpected result: %+v", s.Result)
	}
	if n := attemptCount(t, store); n != 2 {
		t.Fatalf("expected 2 attempt rows, got %d", n)
	}

	if _, err := r.Restart(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if n := attemptCount(t, store); n != 2 {
		t.Fatalf("restart must keep attempts, got %d", n)
	}

	_, _ = r.Select(ctx, quiz.LabelB)
	if _, err := r.Submit(ctx); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if n := attemptCount(t, store); n != 3 {
		t.Fatalf("expected 3 attempt rows after resubmit, got %d", n)
	}
}

func TestRunnerCancelDiscardsSession(t *testing.T) {
	store, _ := newLedger(t)
	r, cancel := runAgainst(t, store)
	ctx := context.Background()

	_, _ = r.Select(ctx, quiz.LabelA)
	_, _ = r.Advance(ctx, session.Next)
	_, _ = r.Select(ctx, quiz.LabelA)
	cancel()
	<-r.Done()

	if n := attemptCount(t, store); n != 0 {
		t.Fatalf("abandoned session wrote %d attempts", n)
	}
	if _, err := r.Submit(ctx); err == nil {
		t.Fatal("submit after cancel should fail")
	}
}
