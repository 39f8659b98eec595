package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type cardTableModel struct {
	ID            string         `db:"id"`
	Number        string         `db:"number"`
	PlayerIDs     pq.Int64Array  `db:"player_ids"`
	TeamIDs       pq.Int64Array  `db:"team_ids"`
	PlayerTeamIDs pq.StringArray `db:"player_team_ids"`
	Rookie        bool           `db:"rookie"`
	Autograph     bool           `db:"autograph"`
	Relic         bool           `db:"relic"`
	ShortPrint    bool           `db:"short_print"`
	PrintRun      sql.NullInt64  `db:"print_run"`
	ColorID       sql.NullInt64  `db:"color_id"`
	Notes         string         `db:"notes"`
	CreatedAt     time.Time      `db:"created_at"`
}
