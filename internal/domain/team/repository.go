package team

import "context"

// Repository describes team catalog reads needed by directory and import
// use cases.
type Repository interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]Team, error)
	GetByIDs(ctx context.Context, teamIDs []int64) ([]Team, error)
}
