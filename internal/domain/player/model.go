package player

import (
	"fmt"
	"strings"
)

// TeamRef is a pre-existing player-team association embedded in a catalog
// player record. Associations fetched this way short-circuit remote link
// creation during import reconciliation.
type TeamRef struct {
	TeamID       int64
	PlayerTeamID string
	TeamName     string
}

// Player is a catalog athlete that checklist mentions resolve against.
type Player struct {
	ID        int64
	Name      string
	FirstName string
	LastName  string
	Teams     []TeamRef
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}

	return nil
}

// HasTeam reports whether the player already carries an association with the
// given team.
func (p Player) HasTeam(teamID int64) bool {
	for _, ref := range p.Teams {
		if ref.TeamID == teamID {
			return true
		}
	}
	return false
}

// FullName joins first and last name, tolerating single-word stage names
// whose last name is empty.
func FullName(firstName, lastName string) string {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if lastName == "" {
		return firstName
	}
	if firstName == "" {
		return lastName
	}
	return firstName + " " + lastName
}

// SplitName breaks a raw mention into first and last name: the first token is
// the first name, the remaining tokens join into the last name. A single-word
// name keeps an empty last name.
func SplitName(raw string) (string, string) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return "", ""
	}
	if len(tokens) == 1 {
		return tokens[0], ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}
