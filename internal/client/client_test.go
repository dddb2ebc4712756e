package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/client"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

func newServer(t *testing.T) (*httptest.Server, []quiz.Question) {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })

	store := quiz.NewSQLStore(dbh, string(db.DriverSQLite))
	qs, err := store.ReplaceMaterial(ctx, "m1", []quiz.Question{
		{Text: "One", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: quiz.LabelA},
		{Text: "Two", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: quiz.LabelB},
		{Text: "Three", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: quiz.LabelC},
		{Text: "Four", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: quiz.LabelD},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := chi.NewRouter()
	api.Mount(r, api.Deps{
		Store:               store,
		Grader:              grading.NewService(store, store, nil),
		Auth:                auth.NewAuthService("test-secret"),
		ExposeCorrectOption: true,
		EnableLocalAuth:     true,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, qs
}

func loggedIn(t *testing.T, srv *httptest.Server, user string) *client.Client {
	return loggedInAs(t, srv, user, "student")
}

func loggedInAs(t *testing.T, srv *httptest.Server, user, role string) *client.Client {
	t.Helper()
	c := client.New(srv.URL, "", srv.Client())
	tok, err := c.Login(context.Background(), user, user, role)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return c.WithToken(tok)
}

func TestClientCatalogAndGrade(t *testing.T) {
	srv, qs := newServer(t)
	c := loggedIn(t, srv, "ana")
	ctx := context.Background()

	got, err := c.ListQuestions(ctx, "m1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 4 || got[0].ID != qs[0].ID || got[3].Text != "Four" {
		t.Fatalf("catalog: %+v", got)
	}

	v, err := c.Grade(ctx, qs[1].ID, quiz.LabelC)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if v.IsCorrect || v.Correct != quiz.LabelB || v.Feedback != "Incorrect. The correct answer is B." {
		t.Fatalf("verdict: %+v", v)
	}

	if _, err := c.Grade(ctx, "missing", quiz.LabelA); !errors.Is(err, quiz.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}

	views, err := c.ListAttempts(ctx, "m1")
	if err != nil || len(views) != 1 || views[0].LearnerID != "ana" {
		t.Fatalf("attempts: %+v %v", views, err)
	}
}

func TestClientErrors(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()

	_, err := client.New(srv.URL, "", srv.Client()).ListQuestions(ctx, "m1")
	var se *client.StatusError
	if !errors.As(err, &se) || se.Status != 401 {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
	if _, err := client.New(srv.URL, "", srv.Client()).Login(ctx, "ana", "wrong", "student"); err == nil {
		t.Fatal("bad credentials should fail")
	}
}

type stepClock struct{ ch chan time.Time }

func (c stepClock) NewTicker(time.Duration) session.Ticker { return c }
func (c stepClock) C() <-chan time.Time                    { return c.ch }
func (c stepClock) Stop()                                  {}

// A full session over HTTP: 4 questions, 3 answered, 2 correct.
func TestSessionOverHTTP(t *testing.T) {
	srv, _ := newServer(t)
	c := loggedIn(t, srv, "ben")

	r := session.NewRunner(c, c, session.Config{
		LearnerID: "ben", MaterialID: "m1", Budget: 60, Parallelism: 2,
		Clock: stepClock{ch: make(chan time.Time)},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-r.Done()
	}()
	go func() { _ = r.Run(ctx) }()

	for _, l := range []quiz.Label{quiz.LabelA, quiz.LabelD, quiz.LabelC} {
		if _, err := r.Select(ctx, l); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, err := r.Advance(ctx, session.Next); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	s, err := r.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	res := s.Result
	if res.TotalQuestions != 4 || res.AnsweredQuestions != 3 || res.CorrectAnswers != 2 || res.Score != 50 {
		t.Fatalf("result: %+v", res)
	}
	if res.Details[3].Answered() {
		t.Fatalf("last question was not answered: %+v", res.Details[3])
	}

	sum, err := c.Summary(ctx, "m1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Attempts != 3 || sum.Correct != 2 || sum.Accuracy != 67 {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestClientImportQuestions(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	qs := []quiz.Question{
		{Text: "New", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: quiz.LabelD},
	}

	if _, err := loggedIn(t, srv, "ana").ImportQuestions(ctx, "m1", qs); err == nil {
		t.Fatal("student import should be forbidden")
	}
	created, err := loggedInAs(t, srv, "prof", "professor").ImportQuestions(ctx, "m2", qs)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(created) != 1 || created[0].ID == "" || created[0].MaterialID != "m2" {
		t.Fatalf("created: %+v", created)
	}
}
