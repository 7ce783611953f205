package trivia

import (
	"context"
	"math/rand/v2"
)

// Selector draws quiz questions without repeating ones the player has seen.
type Selector struct {
	store Store
	intn  func(n int) int
}

// NewSelector builds a selector. A nil intn uses math/rand/v2.
func NewSelector(store Store, intn func(n int) int) *Selector {
	if intn == nil {
		intn = rand.IntN
	}
	return &Selector{store: store, intn: intn}
}

// Next returns a random unseen question, restricted to categoryID when it
// is non-nil. A nil question with a nil error means the quiz is exhausted.
func (s *Selector) Next(ctx context.Context, previous []int, categoryID *int) (*Question, error) {
	candidates, err := s.store.ListQuestions(ctx, QuestionFilter{CategoryID: categoryID})
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(previous))
	for _, id := range previous {
		seen[id] = struct{}{}
	}

	remaining := make([]Question, 0, len(candidates))
	for _, q := range candidates {
		if _, ok := seen[q.ID]; !ok {
			remaining = append(remaining, q)
		}
	}
	if len(remaining) == 0 {
		return nil, nil
	}

	picked := remaining[s.intn(len(remaining))]
	return &picked, nil
}
