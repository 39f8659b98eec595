package playerteam

import "context"

// Repository describes local reads over confirmed player-team links.
type Repository interface {
	ListByPlayerIDs(ctx context.Context, playerIDs []int64) ([]Link, error)
}
