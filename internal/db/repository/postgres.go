package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

// pgxConn is the subset of *pgxpool.Pool the store uses.
type pgxConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

const (
	pgListCategories = `SELECT id, type FROM categories ORDER BY id`
	pgGetCategory    = `SELECT id, type FROM categories WHERE id = $1`
	pgGetQuestion    = `SELECT id, question, answer, category, difficulty FROM questions WHERE id = $1`
	pgListQuestions  = `
		SELECT id, question, answer, category, difficulty
		FROM questions
		WHERE ($1::text = '' OR strpos(lower(question), lower($1::text)) > 0)
		  AND ($2::int IS NULL OR category = $2::int)
		ORDER BY id`
	pgCreateQuestion = `
		INSERT INTO questions (question, answer, category, difficulty)
		VALUES ($1, $2, $3, $4)
		RETURNING id, question, answer, category, difficulty`
	pgDeleteQuestion = `DELETE FROM questions WHERE id = $1`
)

// PostgresStore implements trivia.Store on a pgx pool.
type PostgresStore struct {
	conn pgxConn
}

var _ trivia.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps a pool (or any pgxConn).
func NewPostgresStore(conn pgxConn) *PostgresStore {
	return &PostgresStore{conn: conn}
}

// inInt4 reports whether id fits the integer id columns. Larger ids cannot
// be encoded as query parameters and can never match a row.
func inInt4(id int) bool {
	return id >= math.MinInt32 && id <= math.MaxInt32
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]trivia.Category, error) {
	rows, err := s.conn.Query(ctx, pgListCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByPos[trivia.Category])
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int) (trivia.Category, error) {
	if !inInt4(id) {
		return trivia.Category{}, fmt.Errorf("category %d: %w", id, trivia.ErrNotFound)
	}
	var c trivia.Category
	err := s.conn.QueryRow(ctx, pgGetCategory, id).Scan(&c.ID, &c.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trivia.Category{}, fmt.Errorf("category %d: %w", id, trivia.ErrNotFound)
		}
		return trivia.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, id int) (trivia.Question, error) {
	if !inInt4(id) {
		return trivia.Question{}, fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
	}
	var q trivia.Question
	err := s.conn.QueryRow(ctx, pgGetQuestion, id).Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trivia.Question{}, fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
		}
		return trivia.Question{}, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, filter trivia.QuestionFilter) ([]trivia.Question, error) {
	if filter.CategoryID != nil && !inInt4(*filter.CategoryID) {
		return []trivia.Question{}, nil
	}
	rows, err := s.conn.Query(ctx, pgListQuestions, filter.SearchTerm, filter.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	questions, err := pgx.CollectRows(rows, pgx.RowToStructByPos[trivia.Question])
	if err != nil {
		return nil, fmt.Errorf("failed to scan questions: %w", err)
	}
	return questions, nil
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, params trivia.NewQuestion) (trivia.Question, error) {
	if !inInt4(params.Category) {
		return trivia.Question{}, fmt.Errorf("category %d: %w", params.Category, trivia.ErrNotFound)
	}
	var q trivia.Question
	err := s.conn.QueryRow(ctx, pgCreateQuestion,
		params.Question,
		params.Answer,
		params.Category,
		params.Difficulty,
	).Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return trivia.Question{}, fmt.Errorf("category %d: %w", params.Category, trivia.ErrNotFound)
		}
		return trivia.Question{}, fmt.Errorf("failed to create question: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id int) error {
	if !inInt4(id) {
		return fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
	}
	result, err := s.conn.Exec(ctx, pgDeleteQuestion, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}
