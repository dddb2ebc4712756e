package quiz

import (
	"math"
	"time"
)

// Summary is a learner's performance history on one material, across every
// submission they have made.
type Summary struct {
	MaterialID        string     `json:"materialId"`
	Attempts          int        `json:"attempts"`
	Correct           int        `json:"correct"`
	Accuracy          int        `json:"accuracy"` // percent, rounded
	QuestionsAnswered int        `json:"questionsAnswered"`
	LastAttemptAt     *time.Time `json:"lastAttemptAt,omitempty"`
}

func Summarize(materialID string, views []AttemptView) Summary {
	s := Summary{MaterialID: materialID, Attempts: len(views)}
	seen := make(map[string]struct{}, len(views))
	for _, v := range views {
		if v.IsCorrect {
			s.Correct++
		}
		seen[v.QuizID] = struct{}{}
		if s.LastAttemptAt == nil || v.CreatedAt.After(*s.LastAttemptAt) {
			t := v.CreatedAt
			s.LastAttemptAt = &t
		}
	}
	s.QuestionsAnswered = len(seen)
	if s.Attempts > 0 {
		s.Accuracy = int(math.Round(100 * float64(s.Correct) / float64(s.Attempts)))
	}
	return s
}
