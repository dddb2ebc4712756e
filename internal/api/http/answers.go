package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Grader grades one answer on behalf of learnerID and records the attempt.
type Grader interface {
	Grade(ctx context.Context, learnerID, quizID string, selected quiz.Label) (quiz.Verdict, error)
}

type answerRequest struct {
	SelectedOption string `json:"selectedOption" validate:"required"`
}

// POST /quizzes/{quizId}/answer  { "selectedOption": "C" }
// The learner is the token subject. Each call appends one attempt, so a retry
// is recorded twice.
func AnswerHandler(g Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, badRequest("bad json"))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, badRequest("selectedOption is required"))
			return
		}
		learnerID := auth.SubjectFromContext(r.Context())
		v, err := g.Grade(r.Context(), learnerID, chi.URLParam(r, "quizId"), quiz.Label(req.SelectedOption))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// GET /quizzes/attempts/{materialId}
// Always scoped to the caller.
func ListAttemptsHandler(ledger quiz.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := ledger.ListAttempts(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "materialId"))
		if err != nil {
			writeError(w, err)
			return
		}
		if views == nil {
			views = []quiz.AttemptView{}
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// GET /quizzes/attempts/{materialId}/summary
func AttemptSummaryHandler(ledger quiz.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		materialID := chi.URLParam(r, "materialId")
		views, err := ledger.ListAttempts(r.Context(), auth.SubjectFromContext(r.Context()), materialID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.Summarize(materialID, views))
	}
}
