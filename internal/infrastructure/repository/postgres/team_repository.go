package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/slabtrack/cardstock/internal/domain/team"
	qb "github.com/slabtrack/cardstock/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

var teamSelectColumns = []string{
	"id",
	"organization_id",
	"name",
	"abbreviation",
	"primary_color",
	"secondary_color",
	"created_at",
	"updated_at",
	"deleted_at",
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListByOrganization(ctx context.Context, organizationID string) ([]team.Team, error) {
	query, args, err := qb.Select(teamSelectColumns...).From("teams").
		Where(
			qb.Eq("organization_id", organizationID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by organization query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by organization: %w", err)
	}

	return teamsFromRows(rows), nil
}

func (r *TeamRepository) GetByIDs(ctx context.Context, teamIDs []int64) ([]team.Team, error) {
	if len(teamIDs) == 0 {
		return []team.Team{}, nil
	}

	query, args, err := qb.Select(teamSelectColumns...).From("teams").
		Where(
			qb.In("id", int64SliceToAny(teamIDs)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by ids query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by ids: %w", err)
	}

	return teamsFromRows(rows), nil
}

func teamsFromRows(rows []teamTableModel) []team.Team {
	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Team{
			ID:             row.ID,
			OrganizationID: row.OrganizationID,
			Name:           row.Name,
			Abbreviation:   row.Abbreviation,
			PrimaryColor:   row.PrimaryColor,
			SecondaryColor: row.SecondaryColor,
		})
	}
	return out
}
