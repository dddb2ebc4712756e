package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type Deps struct {
	Store  quiz.Store
	Grader Grader
	Events EventReader // optional
	Auth   *auth.AuthService

	ExposeCorrectOption bool
	EnableLocalAuth     bool
	DevPassHash         string
}

// Mount registers the quiz API on r.
func Mount(r chi.Router, d Deps) {
	if d.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.DevPassHash))
	}

	// Protected API (JWT -> subject and role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.Route("/quizzes", func(qr chi.Router) {
			// Static segments win over {quizId} in chi's tree.
			qr.With(rbac.Require(rbac.PermAttemptOwn)).
				Get("/attempts/{materialId}", ListAttemptsHandler(d.Store))
			qr.With(rbac.Require(rbac.PermAttemptOwn)).
				Get("/attempts/{materialId}/summary", AttemptSummaryHandler(d.Store))

			qr.With(rbac.Require(rbac.PermQuizView)).
				Get("/by-material/{materialId}", ListQuestionsHandler(d.Store, d.ExposeCorrectOption))
			qr.With(rbac.Require(rbac.PermQuizImport)).
				Post("/by-material/{materialId}", ImportQuestionsHandler(d.Store))

			qr.With(rbac.Require(rbac.PermQuizView)).
				Get("/{quizId}", GetQuestionHandler(d.Store, d.ExposeCorrectOption))
			qr.With(rbac.Require(rbac.PermQuizEdit)).
				Put("/{quizId}", UpdateQuestionHandler(d.Store))
			qr.With(rbac.Require(rbac.PermQuizDelete)).
				Delete("/{quizId}", DeleteQuestionHandler(d.Store))
			qr.With(rbac.Require(rbac.PermQuizAnswer)).
				Post("/{quizId}/answer", AnswerHandler(d.Grader))
		})

		if d.Events != nil {
			pr.With(rbac.RequireAny(rbac.PermEventsRead, rbac.PermQuizImport)).
				Get("/events", ListEventsHandler(d.Events))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}
