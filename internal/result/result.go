package result

import (
	"encoding/json"
	"math"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Verdict is one question's outcome inside a submission. Selected is empty
// when the question was left unanswered or its grading call failed, and
// encodes as selectedLabel: null.
type Verdict struct {
	QuestionID string     `json:"questionId"`
	Question   string     `json:"question"`
	Selected   quiz.Label `json:"selectedLabel"`
	Correct    quiz.Label `json:"correctLabel,omitempty"`
	IsCorrect  bool       `json:"isCorrect"`
	Feedback   string     `json:"feedback"`
	Failed     bool       `json:"failed,omitempty"`
}

func (v Verdict) Answered() bool { return v.Selected != "" }

func (v Verdict) MarshalJSON() ([]byte, error) {
	type plain Verdict
	out := struct {
		plain
		Selected *quiz.Label `json:"selectedLabel"`
	}{plain: plain(v)}
	if v.Answered() {
		out.Selected = &v.Selected
	}
	return json.Marshal(out)
}

type Result struct {
	TotalQuestions    int       `json:"totalQuestions"`
	AnsweredQuestions int       `json:"answeredQuestions"`
	CorrectAnswers    int       `json:"correctAnswers"`
	Score             int       `json:"score"`
	Details           []Verdict `json:"details"`
}

const (
	FeedbackUnanswered = "Not answered."
	FeedbackFailed     = "This answer could not be graded."
)

// Unanswered builds the verdict for a question with no selection.
func Unanswered(q quiz.Question) Verdict {
	return Verdict{QuestionID: q.ID, Question: q.Text, Feedback: FeedbackUnanswered}
}

// Failed builds the verdict for an answer whose grading call did not succeed.
// It counts as unanswered and incorrect.
func Failed(q quiz.Question) Verdict {
	return Verdict{QuestionID: q.ID, Question: q.Text, Feedback: FeedbackFailed, Failed: true}
}

// Aggregate folds ordered verdicts into a Result. The total is len(verdicts),
// so unanswered questions stay in the denominator.
func Aggregate(verdicts []Verdict) Result {
	r := Result{
		TotalQuestions: len(verdicts),
		Details:        make([]Verdict, len(verdicts)),
	}
	copy(r.Details, verdicts)
	for _, v := range verdicts {
		if v.Answered() {
			r.AnsweredQuestions++
		}
		if v.IsCorrect {
			r.CorrectAnswers++
		}
	}
	r.Score = Score(r.CorrectAnswers, r.TotalQuestions)
	return r
}

func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
