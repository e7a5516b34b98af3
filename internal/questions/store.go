package questions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quiz-app/backend/internal/database"
	"github.com/quiz-app/backend/internal/models"
)

var ErrNotFound = errors.New("question not found")

// Repository is the persistence boundary for questions.
type Repository interface {
	SaveAll(ctx context.Context, questions []models.Question) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Question, error)
	FindByTopic(ctx context.Context, topic string) ([]models.Question, error)
	FindDistinctTopics(ctx context.Context) ([]string, error)
	SetKnown(ctx context.Context, id int64) error
	IncrementView(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type Store struct {
	db     *sql.DB
	driver string
}

var _ Repository = (*Store)(nil)

func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) q(query string) string {
	return database.Rebind(s.driver, query)
}

// SaveAll inserts every question in a single transaction. Either all rows
// are stored or none are.
func (s *Store) SaveAll(ctx context.Context, questions []models.Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(
		`INSERT INTO questions (topic, question, answer) VALUES (?, ?, ?)`,
	))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, q := range questions {
		if _, err := stmt.ExecContext(ctx, q.Topic, q.Question, q.Answer); err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(questions), nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, topic, question, answer, is_known, view_count
		 FROM questions WHERE id = ?`),
		id,
	).Scan(&q.ID, &q.Topic, &q.Question, &q.Answer, &q.Known, &q.ViewCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return &q, nil
}

func (s *Store) FindByTopic(ctx context.Context, topic string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT id, topic, question, answer, is_known, view_count
		 FROM questions WHERE topic = ? ORDER BY id`),
		topic,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions for topic: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Topic, &q.Question, &q.Answer, &q.Known, &q.ViewCount); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// FindDistinctTopics returns each topic once, sorted.
func (s *Store) FindDistinctTopics(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT topic FROM questions ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := []string{}
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (s *Store) SetKnown(ctx context.Context, id int64) error {
	return s.updateOne(ctx, `UPDATE questions SET is_known = ? WHERE id = ?`, true, id)
}

// IncrementView bumps the counter in SQL so concurrent calls do not lose updates.
func (s *Store) IncrementView(ctx context.Context, id int64) error {
	return s.updateOne(ctx, `UPDATE questions SET view_count = view_count + 1 WHERE id = ?`, id)
}

func (s *Store) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return fmt.Errorf("delete all questions: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
