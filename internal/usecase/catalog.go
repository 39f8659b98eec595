package usecase

import (
	"context"

	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
)

// CatalogProvider is the remote catalog CRUD collaborator the import engine
// consumes. Implementations wrap failures in the usecase sentinels:
// ErrAlreadyExists for duplicate creations (recoverable), ErrInvalidInput for
// validation rejections, ErrNotFound for missing references and
// ErrDependencyUnavailable for transport failures.
type CatalogProvider interface {
	SearchPlayers(ctx context.Context, catalogID string) ([]player.Player, error)
	SearchTeams(ctx context.Context, organizationID string) ([]team.Team, error)
	CreatePlayer(ctx context.Context, firstName, lastName string) (player.Player, error)
	CreateTeam(ctx context.Context, name, organizationID string) (team.Team, error)
	CreateOrFetchPlayerTeamLink(ctx context.Context, playerID, teamID int64) (playerteam.Link, error)
}
