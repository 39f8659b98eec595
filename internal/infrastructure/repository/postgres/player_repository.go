package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/slabtrack/cardstock/internal/domain/player"
	qb "github.com/slabtrack/cardstock/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"id",
	"catalog_id",
	"name",
	"first_name",
	"last_name",
	"created_at",
	"updated_at",
	"deleted_at",
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) List(ctx context.Context, catalogID string) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(
			qb.Eq("catalog_id", catalogID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by catalog query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by catalog: %w", err)
	}

	return r.hydratePlayers(ctx, rows)
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []int64) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(
			qb.In("id", int64SliceToAny(playerIDs)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by ids query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by ids: %w", err)
	}

	return r.hydratePlayers(ctx, rows)
}

func (r *PlayerRepository) hydratePlayers(ctx context.Context, rows []playerTableModel) ([]player.Player, error) {
	out := make([]player.Player, 0, len(rows))
	playerIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		out = append(out, player.Player{
			ID:        row.ID,
			Name:      row.Name,
			FirstName: row.FirstName,
			LastName:  row.LastName,
		})
		playerIDs = append(playerIDs, row.ID)
	}
	if len(out) == 0 {
		return out, nil
	}

	refsByPlayer, err := r.teamRefsByPlayer(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Teams = refsByPlayer[out[i].ID]
	}

	return out, nil
}

func (r *PlayerRepository) teamRefsByPlayer(ctx context.Context, playerIDs []int64) (map[int64][]player.TeamRef, error) {
	query, args, err := qb.Select(
		"pt.player_id",
		"pt.team_id",
		"pt.public_id AS player_team_id",
		"t.name AS team_name",
	).From("player_teams pt JOIN teams t ON t.id = pt.team_id").
		Where(
			qb.In("pt.player_id", int64SliceToAny(playerIDs)),
			qb.IsNull("pt.deleted_at"),
			qb.IsNull("t.deleted_at"),
		).
		OrderBy("pt.player_id", "pt.team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player team refs query: %w", err)
	}

	var rows []playerTeamRefRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player team refs: %w", err)
	}

	refsByPlayer := make(map[int64][]player.TeamRef, len(rows))
	for _, row := range rows {
		refsByPlayer[row.PlayerID] = append(refsByPlayer[row.PlayerID], player.TeamRef{
			TeamID:       row.TeamID,
			PlayerTeamID: row.PlayerTeamID,
			TeamName:     row.TeamName,
		})
	}

	return refsByPlayer, nil
}
