package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/db/migrations"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

const (
	sqliteListCategories = `SELECT id, type FROM categories ORDER BY id`
	sqliteGetCategory    = `SELECT id, type FROM categories WHERE id = ?`
	sqliteGetQuestion    = `SELECT id, question, answer, category, difficulty FROM questions WHERE id = ?`
	sqliteListQuestions  = `
		SELECT id, question, answer, category, difficulty
		FROM questions
		WHERE (?1 = '' OR instr(lower(question), lower(?1)) > 0)
		  AND (?2 IS NULL OR category = ?2)
		ORDER BY id`
	sqliteCreateQuestion = `INSERT INTO questions (question, answer, category, difficulty) VALUES (?, ?, ?, ?)`
	sqliteDeleteQuestion = `DELETE FROM questions WHERE id = ?`
)

// SQLiteStore implements trivia.Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ trivia.Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the
// embedded migrations.
func OpenSQLite(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := OpenSQLiteDB(ctx, path)
	if err != nil {
		return nil, err
	}

	runner, err := migrations.NewRunner(db, migrations.DialectSQLite, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runner.Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return NewSQLiteStore(db), nil
}

// OpenSQLiteDB opens the database file with foreign keys enforced and
// without touching the schema.
func OpenSQLiteDB(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		path = "trivia.db"
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]trivia.Category, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []trivia.Category
	for rows.Next() {
		var c trivia.Category
		if err := rows.Scan(&c.ID, &c.Type); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (s *SQLiteStore) GetCategory(ctx context.Context, id int) (trivia.Category, error) {
	var c trivia.Category
	err := s.db.QueryRowContext(ctx, sqliteGetCategory, id).Scan(&c.ID, &c.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trivia.Category{}, fmt.Errorf("category %d: %w", id, trivia.ErrNotFound)
		}
		return trivia.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id int) (trivia.Question, error) {
	var q trivia.Question
	err := s.db.QueryRowContext(ctx, sqliteGetQuestion, id).Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trivia.Question{}, fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
		}
		return trivia.Question{}, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, filter trivia.QuestionFilter) ([]trivia.Question, error) {
	var category sql.NullInt64
	if filter.CategoryID != nil {
		category = sql.NullInt64{Int64: int64(*filter.CategoryID), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, sqliteListQuestions, filter.SearchTerm, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []trivia.Question{}
	for rows.Next() {
		var q trivia.Question
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}

func (s *SQLiteStore) CreateQuestion(ctx context.Context, params trivia.NewQuestion) (trivia.Question, error) {
	result, err := s.db.ExecContext(ctx, sqliteCreateQuestion,
		params.Question,
		params.Answer,
		params.Category,
		params.Difficulty,
	)
	if err != nil {
		return trivia.Question{}, fmt.Errorf("failed to create question: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return trivia.Question{}, fmt.Errorf("failed to read question id: %w", err)
	}
	return trivia.Question{
		ID:         int(id),
		Question:   params.Question,
		Answer:     params.Answer,
		Category:   params.Category,
		Difficulty: params.Difficulty,
	}, nil
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, sqliteDeleteQuestion, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
