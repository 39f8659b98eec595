package postgres

import "time"

type teamTableModel struct {
	ID             int64      `db:"id"`
	OrganizationID string     `db:"organization_id"`
	Name           string     `db:"name"`
	Abbreviation   string     `db:"abbreviation"`
	PrimaryColor   string     `db:"primary_color"`
	SecondaryColor string     `db:"secondary_color"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}
