package card

import "context"

// ListFilter narrows card listings for the collection browser.
type ListFilter struct {
	Search string
	Limit  int
}

// Repository describes card persistence needs from use cases.
type Repository interface {
	InsertBatch(ctx context.Context, cards []Card) error
	List(ctx context.Context, filter ListFilter) ([]Card, error)
}
