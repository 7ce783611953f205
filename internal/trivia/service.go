package trivia

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Recorder observes domain events. internal/metrics provides the Prometheus
// implementation.
type Recorder interface {
	QuestionCreated()
	QuestionDeleted()
	QuizServed(exhausted bool)
}

type nopRecorder struct{}

func (nopRecorder) QuestionCreated() {}
func (nopRecorder) QuestionDeleted() {}
func (nopRecorder) QuizServed(bool) {}

// ServiceOptions tunes optional service behavior.
type ServiceOptions struct {
	Recorder Recorder
	// Intn overrides the quiz random source.
	Intn func(n int) int
}

// Service implements the trivia operations on top of a Store and classifies
// every failure into a Kind.
type Service struct {
	store    Store
	resolver *Resolver
	selector *Selector
	recorder Recorder
}

// NewService wires the resolver and selector around store.
func NewService(store Store, opts ServiceOptions) *Service {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		selector: NewSelector(store, opts.Intn),
		recorder: recorder,
	}
}

// Categories returns every category ordered by id.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, classify("list categories", err, KindInternal)
	}
	return categories, nil
}

// ListQuestions returns one page of all questions. A page past the end is NotFound.
func (s *Service) ListQuestions(ctx context.Context, page Page) (Listing, error) {
	listing, err := s.resolver.All(ctx, page)
	if err != nil {
		return Listing{}, classify("list questions", err, KindInternal)
	}
	if len(listing.Questions) == 0 {
		return Listing{}, newError(KindNotFound, "list questions", fmt.Errorf("page %d is empty", page.Number))
	}
	return listing, nil
}

// SearchQuestions returns one page of questions containing term.
func (s *Service) SearchQuestions(ctx context.Context, term string, page Page) (Listing, error) {
	listing, err := s.resolver.Search(ctx, term, page)
	if err != nil {
		return Listing{}, classify("search questions", err, KindUnprocessable)
	}
	return listing, nil
}

// QuestionsByCategory returns one page of a category's questions.
func (s *Service) QuestionsByCategory(ctx context.Context, categoryID int, page Page) (Listing, error) {
	listing, err := s.resolver.ByCategory(ctx, categoryID, page)
	if err != nil {
		return Listing{}, classify("questions by category", err, KindInternal)
	}
	return listing, nil
}

// CreateQuestion validates and stores a new question. The referenced
// category must exist.
func (s *Service) CreateQuestion(ctx context.Context, params NewQuestion) (Question, error) {
	const op = "create question"
	if err := params.Validate(); err != nil {
		return Question{}, newError(KindBadRequest, op, err)
	}

	if _, err := s.store.GetCategory(ctx, params.Category); err != nil {
		// an unknown category is a well-formed request that cannot be honored
		return Question{}, newError(KindUnprocessable, op, err)
	}

	created, err := s.store.CreateQuestion(ctx, params)
	if err != nil {
		return Question{}, newError(KindUnprocessable, op, err)
	}
	s.recorder.QuestionCreated()
	return created, nil
}

// DeleteQuestion removes a question permanently.
func (s *Service) DeleteQuestion(ctx context.Context, id int) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return classify("delete question", err, KindUnprocessable)
	}
	s.recorder.QuestionDeleted()
	return nil
}

// NextQuizQuestion picks a random question not in previous. A nil categoryID
// draws from all categories. A nil question means the quiz is exhausted.
func (s *Service) NextQuizQuestion(ctx context.Context, previous []int, categoryID *int) (*Question, error) {
	q, err := s.selector.Next(ctx, previous, categoryID)
	if err != nil {
		return nil, newError(KindUnprocessable, "next quiz question", err)
	}
	s.recorder.QuizServed(q == nil)
	return q, nil
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Validate checks every field is present and non-empty.
func (p NewQuestion) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Question) == "" {
		problems = append(problems, "question is required")
	}
	if strings.TrimSpace(p.Answer) == "" {
		problems = append(problems, "answer is required")
	}
	if p.Category <= 0 {
		problems = append(problems, "category is required")
	}
	if p.Difficulty <= 0 {
		problems = append(problems, "difficulty is required")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
