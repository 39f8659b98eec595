package team

import (
	"fmt"
	"strings"
)

// Team is a catalog franchise scoped to one organization (league or sport).
type Team struct {
	ID             int64
	OrganizationID string
	Name           string
	Abbreviation   string
	PrimaryColor   string
	SecondaryColor string
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.OrganizationID) == "" {
		return fmt.Errorf("team organization id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
