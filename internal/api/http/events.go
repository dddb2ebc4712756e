package http

import (
	"context"
	"net/http"

	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

type EventReader interface {
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /events?after=0&limit=100
// Pull feed of ledger events for dashboards that do not subscribe to Redis.
func ListEventsHandler(events EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after := int64(parseIntDefault(r.URL.Query().Get("after"), 0))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		if limit == 0 || limit > 1000 {
			limit = 1000
		}
		list, err := events.Since(r.Context(), after, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
