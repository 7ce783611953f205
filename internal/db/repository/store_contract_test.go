package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

// runStoreContract exercises a store that already holds the default
// categories and no questions.
func runStoreContract(t *testing.T, store trivia.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("categories ordered by id", func(t *testing.T) {
		categories, err := store.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultCategories(), categories)

		c, err := store.GetCategory(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "Geography", c.Type)

		_, err = store.GetCategory(ctx, 999)
		assert.ErrorIs(t, err, trivia.ErrNotFound)
	})

	var created []trivia.Question
	t.Run("create assigns fresh ids", func(t *testing.T) {
		inputs := []trivia.NewQuestion{
			{Question: "What is the boiling point of water?", Answer: "100C", Category: 1, Difficulty: 1},
			{Question: "Who painted the Mona Lisa?", Answer: "Leonardo da Vinci", Category: 2, Difficulty: 2},
			{Question: "What is the TALLEST mountain?", Answer: "Everest", Category: 3, Difficulty: 3},
			{Question: "Which planet is the Red Planet?", Answer: "Mars", Category: 1, Difficulty: 2},
		}
		seen := map[int]bool{}
		for _, in := range inputs {
			q, err := store.CreateQuestion(ctx, in)
			require.NoError(t, err)
			assert.False(t, seen[q.ID], "id %d reused", q.ID)
			seen[q.ID] = true
			assert.Equal(t, in.Question, q.Question)
			assert.Equal(t, in.Answer, q.Answer)
			assert.Equal(t, in.Category, q.Category)
			assert.Equal(t, in.Difficulty, q.Difficulty)
			created = append(created, q)
		}
	})

	t.Run("list all ascending", func(t *testing.T) {
		all, err := store.ListQuestions(ctx, trivia.QuestionFilter{})
		require.NoError(t, err)
		require.Len(t, all, len(created))
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i-1].ID, all[i].ID)
		}
	})

	t.Run("search is case-insensitive substring", func(t *testing.T) {
		got, err := store.ListQuestions(ctx, trivia.QuestionFilter{SearchTerm: "tallest"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, created[2].ID, got[0].ID)

		got, err = store.ListQuestions(ctx, trivia.QuestionFilter{SearchTerm: "WHAT IS"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = store.ListQuestions(ctx, trivia.QuestionFilter{SearchTerm: "%"})
		require.NoError(t, err)
		assert.Empty(t, got, "wildcards must match literally")
	})

	t.Run("filter by category", func(t *testing.T) {
		science := 1
		got, err := store.ListQuestions(ctx, trivia.QuestionFilter{CategoryID: &science})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, q := range got {
			assert.Equal(t, science, q.Category)
		}
	})

	t.Run("delete removes permanently", func(t *testing.T) {
		target := created[0].ID
		require.NoError(t, store.DeleteQuestion(ctx, target))

		_, err := store.GetQuestion(ctx, target)
		assert.ErrorIs(t, err, trivia.ErrNotFound)

		err = store.DeleteQuestion(ctx, target)
		assert.ErrorIs(t, err, trivia.ErrNotFound)

		all, err := store.ListQuestions(ctx, trivia.QuestionFilter{})
		require.NoError(t, err)
		for _, q := range all {
			assert.NotEqual(t, target, q.ID)
		}
	})

	t.Run("ids beyond int32 are not found", func(t *testing.T) {
		huge := 99999999999

		_, err := store.GetCategory(ctx, huge)
		assert.ErrorIs(t, err, trivia.ErrNotFound)
		assert.ErrorIs(t, store.DeleteQuestion(ctx, huge), trivia.ErrNotFound)

		questions, err := store.ListQuestions(ctx, trivia.QuestionFilter{CategoryID: &huge})
		require.NoError(t, err)
		assert.Empty(t, questions)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
