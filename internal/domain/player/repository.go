package player

import "context"

// Repository describes player catalog reads needed by directory and import
// use cases.
type Repository interface {
	List(ctx context.Context, catalogID string) ([]Player, error)
	GetByIDs(ctx context.Context, playerIDs []int64) ([]Player, error)
}
