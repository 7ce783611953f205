package trivia

import (
	"context"
)

// Listing is a resolved, paginated view of questions.
type Listing struct {
	Questions []Question
	// Total counts matches before pagination.
	Total           int
	Categories      CategoryMap
	CurrentCategory *Category
}

// Resolver turns the listing modes into store filters.
type Resolver struct {
	store Store
}

// NewResolver constructs a resolver reading through store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// All lists every question.
func (r *Resolver) All(ctx context.Context, page Page) (Listing, error) {
	return r.resolve(ctx, QuestionFilter{}, page, nil)
}

// Search lists questions whose text contains term, ignoring case.
func (r *Resolver) Search(ctx context.Context, term string, page Page) (Listing, error) {
	return r.resolve(ctx, QuestionFilter{SearchTerm: term}, page, nil)
}

// ByCategory lists the questions of one category. The category must exist.
func (r *Resolver) ByCategory(ctx context.Context, categoryID int, page Page) (Listing, error) {
	category, err := r.store.GetCategory(ctx, categoryID)
	if err != nil {
		return Listing{}, err
	}
	return r.resolve(ctx, QuestionFilter{CategoryID: &category.ID}, page, &category)
}

func (r *Resolver) resolve(ctx context.Context, filter QuestionFilter, page Page, current *Category) (Listing, error) {
	questions, err := r.store.ListQuestions(ctx, filter)
	if err != nil {
		return Listing{}, err
	}
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		return Listing{}, err
	}
	return Listing{
		Questions:       Paginate(questions, page),
		Total:           len(questions),
		Categories:      newCategoryMap(categories),
		CurrentCategory: current,
	}, nil
}
