package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/slabtrack/cardstock/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the development fixture catalog into an empty
// database. A database that already holds teams is left untouched.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM teams WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	seed := memory.DefaultSeed()

	for organizationID, teams := range seed.TeamsByOrganization {
		for _, t := range teams {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO teams (id, organization_id, name, abbreviation, primary_color, secondary_color)
VALUES (:id, :organization_id, :name, :abbreviation, :primary_color, :secondary_color)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":              t.ID,
				"organization_id": organizationID,
				"name":            t.Name,
				"abbreviation":    t.Abbreviation,
				"primary_color":   t.PrimaryColor,
				"secondary_color": t.SecondaryColor,
			})
			if err != nil {
				return fmt.Errorf("bind seed team %d query: %w", t.ID, err)
			}
			sqlQuery = tx.Rebind(sqlQuery)
			if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
				return fmt.Errorf("seed team %d: %w", t.ID, err)
			}
		}
	}

	for catalogID, players := range seed.PlayersByCatalog {
		for _, p := range players {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO players (id, catalog_id, name, first_name, last_name)
VALUES (:id, :catalog_id, :name, :first_name, :last_name)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":         p.ID,
				"catalog_id": catalogID,
				"name":       p.Name,
				"first_name": p.FirstName,
				"last_name":  p.LastName,
			})
			if err != nil {
				return fmt.Errorf("bind seed player %d query: %w", p.ID, err)
			}
			sqlQuery = tx.Rebind(sqlQuery)
			if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
				return fmt.Errorf("seed player %d: %w", p.ID, err)
			}
		}
	}

	for _, link := range seed.Links {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO player_teams (public_id, player_id, team_id)
VALUES (:public_id, :player_id, :team_id)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id": link.ID,
			"player_id": link.PlayerID,
			"team_id":   link.TeamID,
		})
		if err != nil {
			return fmt.Errorf("bind seed link %s query: %w", link.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed link %s: %w", link.ID, err)
		}
	}

	// Seed rows carry explicit ids, so the serial sequences need a bump past
	// the highest seeded value.
	for _, table := range []string{"teams", "players"} {
		query := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %s))`, table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("bump %s id sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
