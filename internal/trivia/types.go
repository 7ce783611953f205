package trivia

import (
	"context"
	"strings"
)

// Category groups questions under a human readable label.
type Category struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// Question is the payload delivered to clients.
type Question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// NewQuestion carries the fields required to persist a question.
type NewQuestion struct {
	Question   string
	Answer     string
	Category   int
	Difficulty int
}

// QuestionFilter narrows ListQuestions. Zero value selects every question.
type QuestionFilter struct {
	// SearchTerm matches as a case-insensitive substring of the question text.
	SearchTerm string
	CategoryID *int
}

// Matches reports whether q satisfies the filter.
func (f QuestionFilter) Matches(q Question) bool {
	if f.CategoryID != nil && q.Category != *f.CategoryID {
		return false
	}
	if f.SearchTerm != "" && !strings.Contains(strings.ToLower(q.Question), strings.ToLower(f.SearchTerm)) {
		return false
	}
	return true
}

// Store persists categories and questions. Lookups of missing rows return
// an error wrapping ErrNotFound. ListQuestions orders by ascending id.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int) (Category, error)
	GetQuestion(ctx context.Context, id int) (Question, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error)
	CreateQuestion(ctx context.Context, params NewQuestion) (Question, error)
	DeleteQuestion(ctx context.Context, id int) error
	Ping(ctx context.Context) error
}

// CategoryMap indexes category labels by id, the shape clients render.
type CategoryMap map[int]string

func newCategoryMap(categories []Category) CategoryMap {
	m := make(CategoryMap, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Type
	}
	return m
}
