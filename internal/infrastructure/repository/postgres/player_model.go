package postgres

import "time"

type playerTableModel struct {
	ID        int64      `db:"id"`
	CatalogID string     `db:"catalog_id"`
	Name      string     `db:"name"`
	FirstName string     `db:"first_name"`
	LastName  string     `db:"last_name"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// playerTeamRefRowModel is the join projection used to hydrate the team
// associations embedded in a player listing.
type playerTeamRefRowModel struct {
	PlayerID     int64  `db:"player_id"`
	TeamID       int64  `db:"team_id"`
	PlayerTeamID string `db:"player_team_id"`
	TeamName     string `db:"team_name"`
}
