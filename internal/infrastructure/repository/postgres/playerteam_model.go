package postgres

// linkRowModel joins a player-team association with the display names the
// import surface renders alongside it.
type linkRowModel struct {
	PublicID   string `db:"public_id"`
	PlayerID   int64  `db:"player_id"`
	TeamID     int64  `db:"team_id"`
	PlayerName string `db:"player_name"`
	TeamName   string `db:"team_name"`
}
