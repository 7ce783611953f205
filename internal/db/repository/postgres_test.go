package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

type mockPgxConn struct {
	mock.Mock
}

func (m *mockPgxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	called := m.Called(ctx, sql, args)
	rows, _ := called.Get(0).(pgx.Rows)
	return rows, called.Error(1)
}

func (m *mockPgxConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

func (m *mockPgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return called.Get(0).(pgconn.CommandTag), called.Error(1)
}

func (m *mockPgxConn) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// stubRow scans fixed values or returns err.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int:
			*p = r.values[i].(int)
		case *string:
			*p = r.values[i].(string)
		}
	}
	return nil
}

func TestPostgresStore_DeleteQuestion(t *testing.T) {
	conn := new(mockPgxConn)
	store := NewPostgresStore(conn)

	conn.On("Exec", mock.Anything, pgDeleteQuestion, []any{7}).Return(pgconn.NewCommandTag("DELETE 1"), nil)
	conn.On("Exec", mock.Anything, pgDeleteQuestion, []any{8}).Return(pgconn.NewCommandTag("DELETE 0"), nil)
	conn.On("Exec", mock.Anything, pgDeleteQuestion, []any{9}).Return(pgconn.CommandTag{}, errors.New("connection reset"))

	assert.NoError(t, store.DeleteQuestion(context.Background(), 7))
	assert.ErrorIs(t, store.DeleteQuestion(context.Background(), 8), trivia.ErrNotFound)

	err := store.DeleteQuestion(context.Background(), 9)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, trivia.ErrNotFound)
	conn.AssertExpectations(t)
}

func TestPostgresStore_GetCategory(t *testing.T) {
	conn := new(mockPgxConn)
	store := NewPostgresStore(conn)

	conn.On("QueryRow", mock.Anything, pgGetCategory, []any{1}).Return(stubRow{values: []any{1, "Science"}})
	conn.On("QueryRow", mock.Anything, pgGetCategory, []any{2}).Return(stubRow{err: pgx.ErrNoRows})

	c, err := store.GetCategory(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, trivia.Category{ID: 1, Type: "Science"}, c)

	_, err = store.GetCategory(context.Background(), 2)
	assert.ErrorIs(t, err, trivia.ErrNotFound)
	conn.AssertExpectations(t)
}

func TestPostgresStore_CreateQuestionForeignKeyViolation(t *testing.T) {
	conn := new(mockPgxConn)
	store := NewPostgresStore(conn)

	params := trivia.NewQuestion{Question: "q", Answer: "a", Category: 42, Difficulty: 1}
	conn.On("QueryRow", mock.Anything, pgCreateQuestion, []any{"q", "a", 42, 1}).
		Return(stubRow{err: &pgconn.PgError{Code: "23503"}})

	_, err := store.CreateQuestion(context.Background(), params)
	assert.ErrorIs(t, err, trivia.ErrNotFound)
	conn.AssertExpectations(t)
}

func TestPostgresStore_CreateQuestion(t *testing.T) {
	conn := new(mockPgxConn)
	store := NewPostgresStore(conn)

	params := trivia.NewQuestion{Question: "q", Answer: "a", Category: 1, Difficulty: 3}
	conn.On("QueryRow", mock.Anything, pgCreateQuestion, []any{"q", "a", 1, 3}).
		Return(stubRow{values: []any{11, "q", "a", 1, 3}})

	got, err := store.CreateQuestion(context.Background(), params)
	assert.NoError(t, err)
	assert.Equal(t, trivia.Question{ID: 11, Question: "q", Answer: "a", Category: 1, Difficulty: 3}, got)
}

func TestPostgresStore_ListQuestionsQueryError(t *testing.T) {
	conn := new(mockPgxConn)
	store := NewPostgresStore(conn)

	conn.On("Query", mock.Anything, pgListQuestions, mock.Anything).Return(nil, errors.New("boom"))

	_, err := store.ListQuestions(context.Background(), trivia.QuestionFilter{})
	assert.Error(t, err)
}

func TestPostgresStore_IDsBeyondInt4AreNotFound(t *testing.T) {
	conn := new(mockPgxConn)
	store := NewPostgresStore(conn)
	ctx := context.Background()
	huge := 99999999999

	_, err := store.GetCategory(ctx, huge)
	assert.ErrorIs(t, err, trivia.ErrNotFound)

	_, err = store.GetQuestion(ctx, huge)
	assert.ErrorIs(t, err, trivia.ErrNotFound)

	assert.ErrorIs(t, store.DeleteQuestion(ctx, huge), trivia.ErrNotFound)

	_, err = store.CreateQuestion(ctx, trivia.NewQuestion{Question: "q", Answer: "a", Category: huge, Difficulty: 1})
	assert.ErrorIs(t, err, trivia.ErrNotFound)

	questions, err := store.ListQuestions(ctx, trivia.QuestionFilter{CategoryID: &huge})
	assert.NoError(t, err)
	assert.Empty(t, questions)

	conn.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
	conn.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
	conn.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}
