package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/platform/apierr"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes the error envelope. Unknown
// errors become a generic 500 so internals do not leak.
func writeError(w http.ResponseWriter, err error) {
	ae := toAPIError(err)
	writeJSON(w, ae.Status, errorBody{Error: errorDetail{Message: ae.Message(), Code: ae.Code}})
}

func toAPIError(err error) *apierr.Error {
	var ae *apierr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, quiz.ErrQuestionNotFound):
		return apierr.NotFound("quiz")
	case errors.Is(err, grading.ErrNoLearner):
		return apierr.Unauthorized(err)
	default:
		return apierr.Internal(err)
	}
}

func badRequest(msg string) error {
	return apierr.BadRequest(msg)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
