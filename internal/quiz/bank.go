package quiz

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bank is a question set on disk, as written by the generator or by hand.
// YAML and JSON both parse.
//
//	material: intro-bio
//	questions:
//	  - question: What is H2O?
//	    options: {A: Salt, B: Sugar, C: Water, D: Air}
//	    answer: C
type Bank struct {
	MaterialID string         `yaml:"material"`
	Questions  []BankQuestion `yaml:"questions"`
}

type BankQuestion struct {
	Question string            `yaml:"question"`
	Options  map[string]string `yaml:"options"`
	Answer   string            `yaml:"answer"`
}

func ParseBank(r io.Reader) (Bank, error) {
	var b Bank
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return Bank{}, fmt.Errorf("parse bank: %w", err)
	}
	if len(b.Questions) == 0 {
		return Bank{}, fmt.Errorf("parse bank: no questions")
	}
	return b, nil
}

// ToQuestions converts the bank in file order. Every question needs all four
// options and an answer among A..D.
func (b Bank) ToQuestions() ([]Question, error) {
	out := make([]Question, 0, len(b.Questions))
	for i, bq := range b.Questions {
		q := Question{
			MaterialID:    b.MaterialID,
			Position:      i,
			Text:          strings.TrimSpace(bq.Question),
			CorrectOption: Label(strings.TrimSpace(bq.Answer)),
		}
		if q.Text == "" {
			return nil, fmt.Errorf("question %d: empty text", i+1)
		}
		for _, l := range Labels {
			opt := strings.TrimSpace(bq.Options[string(l)])
			if opt == "" {
				return nil, fmt.Errorf("question %d: missing option %s", i+1, l)
			}
			switch l {
			case LabelA:
				q.OptionA = opt
			case LabelB:
				q.OptionB = opt
			case LabelC:
				q.OptionC = opt
			case LabelD:
				q.OptionD = opt
			}
		}
		if len(bq.Options) != len(Labels) {
			return nil, fmt.Errorf("question %d: options must be exactly A, B, C, D", i+1)
		}
		if !q.CorrectOption.Valid() {
			return nil, fmt.Errorf("question %d: answer %q is not one of A, B, C, D", i+1, bq.Answer)
		}
		out = append(out, q)
	}
	return out, nil
}
