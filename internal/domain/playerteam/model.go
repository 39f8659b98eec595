package playerteam

import (
	"fmt"
	"strings"
)

// Link is a confirmed association between one player and one team in the
// catalog. A link is either fetched/created remotely (real id) or synthesized
// locally when the remote create reports the pair already exists
// (placeholder id from ExistingLinkID). Both forms are interchangeable for
// import readiness.
type Link struct {
	ID         string
	PlayerID   int64
	TeamID     int64
	PlayerName string
	TeamName   string
}

func (l Link) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("player-team link id is required")
	}
	if l.PlayerID <= 0 {
		return fmt.Errorf("player-team link player id is required")
	}
	if l.TeamID <= 0 {
		return fmt.Errorf("player-team link team id is required")
	}

	return nil
}

// ExistingLinkID is the deterministic placeholder id for a link the remote
// catalog reported as already existing.
func ExistingLinkID(playerID, teamID int64) string {
	return fmt.Sprintf("existing_%d_%d", playerID, teamID)
}

// Existing synthesizes a confirmed link for an association that already
// exists remotely.
func Existing(playerID, teamID int64, playerName, teamName string) Link {
	return Link{
		ID:         ExistingLinkID(playerID, teamID),
		PlayerID:   playerID,
		TeamID:     teamID,
		PlayerName: playerName,
		TeamName:   teamName,
	}
}
