package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

var validate = validator.New()

// questionInput is the editable part of a question.
type questionInput struct {
	Question      string `json:"question" validate:"required"`
	OptionA       string `json:"optionA" validate:"required"`
	OptionB       string `json:"optionB" validate:"required"`
	OptionC       string `json:"optionC" validate:"required"`
	OptionD       string `json:"optionD" validate:"required"`
	CorrectOption string `json:"correctOption" validate:"required,oneof=A B C D"`
}

func (in questionInput) toQuestion() quiz.Question {
	return quiz.Question{
		Text:          strings.TrimSpace(in.Question),
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
		OptionC:       in.OptionC,
		OptionD:       in.OptionD,
		CorrectOption: quiz.Label(in.CorrectOption),
	}
}

// hideKey reports whether correctOption must be stripped for this caller.
func hideKey(r *http.Request, exposeKey bool) bool {
	return !exposeKey && !rbac.Can(r.Context(), rbac.PermQuizViewKey)
}

// GET /quizzes/by-material/{materialId}
// Ordered by position. correctOption is omitted for learners when exposeKey is off.
func ListQuestionsHandler(catalog quiz.Catalog, exposeKey bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		materialID := chi.URLParam(r, "materialId")
		qs, err := catalog.ListQuestions(r.Context(), materialID)
		if err != nil {
			writeError(w, err)
			return
		}
		if qs == nil {
			qs = []quiz.Question{}
		}
		if hideKey(r, exposeKey) {
			for i := range qs {
				qs[i] = qs[i].WithoutKey()
			}
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// GET /quizzes/{quizId}
func GetQuestionHandler(catalog quiz.Catalog, exposeKey bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := catalog.GetQuestion(r.Context(), chi.URLParam(r, "quizId"))
		if err != nil {
			writeError(w, err)
			return
		}
		if hideKey(r, exposeKey) {
			q = q.WithoutKey()
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// PUT /quizzes/{quizId}
func UpdateQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in questionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, badRequest("bad json"))
			return
		}
		if err := validate.Struct(in); err != nil {
			writeError(w, badRequest(err.Error()))
			return
		}
		q := in.toQuestion()
		q.ID = chi.URLParam(r, "quizId")
		if err := store.UpdateQuestion(r.Context(), q); err != nil {
			writeError(w, err)
			return
		}
		updated, err := store.GetQuestion(r.Context(), q.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// DELETE /quizzes/{quizId}
// Attempts against the question stay in the ledger.
func DeleteQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "quizId")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type importRequest struct {
	Questions []questionInput `json:"questions" validate:"required,min=1,dive"`
}

// POST /quizzes/by-material/{materialId}
// Publishes a new generation: the material's questions are replaced in one
// transaction, in body order.
func ImportQuestionsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, badRequest("bad json"))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, badRequest(err.Error()))
			return
		}
		qs := make([]quiz.Question, len(req.Questions))
		for i, in := range req.Questions {
			qs[i] = in.toQuestion()
		}
		created, err := store.ReplaceMaterial(r.Context(), chi.URLParam(r, "materialId"), qs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}
