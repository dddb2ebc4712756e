package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite", "postgres" or "pq"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

const questionCols = `quiz_id,material_id,position,question,option_a,option_b,option_c,option_d,correct_option`

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (Question, error) {
	var q Question
	var correct string
	if err := row.Scan(&q.ID, &q.MaterialID, &q.Position, &q.Text,
		&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &correct); err != nil {
		return Question{}, err
	}
	q.CorrectOption = Label(correct)
	return q, nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, materialID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM quizzes WHERE material_id=$1 ORDER BY position, quiz_id`, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Question, 0, 16)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetQuestion(ctx context.Context, quizID string) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM quizzes WHERE quiz_id=$1`, quizID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE quizzes SET question=$1, option_a=$2, option_b=$3, option_c=$4, option_d=$5, correct_option=$6
		 WHERE quiz_id=$7`,
		q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, string(q.CorrectOption), q.ID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, quizID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE quiz_id=$1`, quizID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) ReplaceMaterial(ctx context.Context, materialID string, qs []Question) ([]Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE material_id=$1`, materialID); err != nil {
		return nil, fmt.Errorf("clear material: %w", err)
	}
	created := s.now().Unix()
	out := make([]Question, 0, len(qs))
	for i, q := range qs {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.MaterialID = materialID
		q.Position = i
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quizzes (`+questionCols+`,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			q.ID, q.MaterialID, q.Position, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
			string(q.CorrectOption), created); err != nil {
			return nil, fmt.Errorf("insert question %d: %w", i, err)
		}
		out = append(out, q)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) AppendAttempt(ctx context.Context, a Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (attempt_id,user_id,quiz_id,selected_option,is_correct,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.LearnerID, a.QuizID, string(a.Selected), a.IsCorrect, a.CreatedAt.Unix())
	return err
}

func (s *SQLStore) ListAttempts(ctx context.Context, learnerID, materialID string) ([]AttemptView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.attempt_id, a.user_id, a.quiz_id, a.selected_option, a.is_correct, a.created_at,
		        q.question, q.correct_option
		   FROM quiz_attempts a
		   JOIN quizzes q ON a.quiz_id = q.quiz_id
		  WHERE a.user_id=$1 AND q.material_id=$2
		  ORDER BY a.created_at, q.position`,
		learnerID, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AttemptView, 0, 16)
	for rows.Next() {
		var v AttemptView
		var selected, correct string
		var created int64
		if err := rows.Scan(&v.ID, &v.LearnerID, &v.QuizID, &selected, &v.IsCorrect, &created,
			&v.Question, &correct); err != nil {
			return nil, err
		}
		v.Selected = Label(selected)
		v.CorrectOption = Label(correct)
		v.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}
