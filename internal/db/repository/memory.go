package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

// MemoryStore keeps categories and questions in process memory. It backs
// STORAGE_DRIVER=memory and the handler tests.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[int]trivia.Category
	questions  map[int]trivia.Question
	nextID     int
}

var _ trivia.Store = (*MemoryStore)(nil)

// NewMemoryStore seeds the store with categories.
func NewMemoryStore(categories ...trivia.Category) *MemoryStore {
	s := &MemoryStore{
		categories: make(map[int]trivia.Category, len(categories)),
		questions:  make(map[int]trivia.Question),
		nextID:     1,
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return s
}

// DefaultCategories mirrors the seed migration.
func DefaultCategories() []trivia.Category {
	return []trivia.Category{
		{ID: 1, Type: "Science"},
		{ID: 2, Type: "Art"},
		{ID: 3, Type: "Geography"},
		{ID: 4, Type: "History"},
		{ID: 5, Type: "Entertainment"},
		{ID: 6, Type: "Sports"},
	}
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]trivia.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]trivia.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id int) (trivia.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return trivia.Category{}, fmt.Errorf("category %d: %w", id, trivia.ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) GetQuestion(_ context.Context, id int) (trivia.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return trivia.Question{}, fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
	}
	return q, nil
}

func (s *MemoryStore) ListQuestions(_ context.Context, filter trivia.QuestionFilter) ([]trivia.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]trivia.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if filter.Matches(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateQuestion(_ context.Context, params trivia.NewQuestion) (trivia.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := trivia.Question{
		ID:         s.nextID,
		Question:   params.Question,
		Answer:     params.Answer,
		Category:   params.Category,
		Difficulty: params.Difficulty,
	}
	s.questions[q.ID] = q
	s.nextID++
	return q, nil
}

func (s *MemoryStore) DeleteQuestion(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("question %d: %w", id, trivia.ErrNotFound)
	}
	delete(s.questions, id)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
