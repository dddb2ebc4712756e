package quiz

import (
	"errors"
	"time"
)

var ErrQuestionNotFound = errors.New("quiz not found")

// Label is an option letter. Comparison is case-sensitive.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

var Labels = []Label{LabelA, LabelB, LabelC, LabelD}

func (l Label) Valid() bool {
	switch l {
	case LabelA, LabelB, LabelC, LabelD:
		return true
	}
	return false
}

// Question is one generated MCQ. The engine treats it as read-only.
type Question struct {
	ID            string `json:"quizId"`
	MaterialID    string `json:"materialId"`
	Position      int    `json:"position"`
	Text          string `json:"question"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectOption Label  `json:"correctOption,omitempty"`
}

func (q Question) Option(l Label) string {
	switch l {
	case LabelA:
		return q.OptionA
	case LabelB:
		return q.OptionB
	case LabelC:
		return q.OptionC
	case LabelD:
		return q.OptionD
	}
	return ""
}

// WithoutKey returns a copy safe to show a learner before grading.
func (q Question) WithoutKey() Question {
	q.CorrectOption = ""
	return q
}

// Attempt is one ledger row: a single graded answer.
type Attempt struct {
	ID        string    `json:"attemptId"`
	LearnerID string    `json:"userId"`
	QuizID    string    `json:"quizId"`
	Selected  Label     `json:"selectedOption"`
	IsCorrect bool      `json:"isCorrect"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttemptView is an Attempt joined with its question, for history reads.
type AttemptView struct {
	Attempt
	Question      string `json:"question"`
	CorrectOption Label  `json:"correctOption"`
}

// Verdict is the grading outcome returned to the caller.
type Verdict struct {
	Correct   Label  `json:"correct"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
	Question  string `json:"question"`
}
