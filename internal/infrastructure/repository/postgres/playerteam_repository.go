package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	qb "github.com/slabtrack/cardstock/internal/platform/querybuilder"
)

type PlayerTeamRepository struct {
	db *sqlx.DB
}

func NewPlayerTeamRepository(db *sqlx.DB) *PlayerTeamRepository {
	return &PlayerTeamRepository{db: db}
}

func (r *PlayerTeamRepository) ListByPlayerIDs(ctx context.Context, playerIDs []int64) ([]playerteam.Link, error) {
	if len(playerIDs) == 0 {
		return []playerteam.Link{}, nil
	}

	query, args, err := qb.Select(
		"pt.public_id",
		"pt.player_id",
		"pt.team_id",
		"p.name AS player_name",
		"t.name AS team_name",
	).From("player_teams pt JOIN players p ON p.id = pt.player_id JOIN teams t ON t.id = pt.team_id").
		Where(
			qb.In("pt.player_id", int64SliceToAny(playerIDs)),
			qb.IsNull("pt.deleted_at"),
		).
		OrderBy("pt.player_id", "pt.team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select links by player ids query: %w", err)
	}

	var rows []linkRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select links by player ids: %w", err)
	}

	out := make([]playerteam.Link, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerteam.Link{
			ID:         row.PublicID,
			PlayerID:   row.PlayerID,
			TeamID:     row.TeamID,
			PlayerName: row.PlayerName,
			TeamName:   row.TeamName,
		})
	}

	return out, nil
}
