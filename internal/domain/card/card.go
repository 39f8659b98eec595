package card

import (
	"fmt"
	"strings"
	"time"
)

// Card is a committed catalog card produced from a fully-resolved ParsedRow.
type Card struct {
	ID            string
	Number        string
	PlayerIDs     []int64
	TeamIDs       []int64
	PlayerTeamIDs []string
	Rookie        bool
	Autograph     bool
	Relic         bool
	ShortPrint    bool
	PrintRun      *int
	ColorID       *int
	Notes         string
	CreatedAt     time.Time
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("card id is required")
	}
	if strings.TrimSpace(c.Number) == "" {
		return fmt.Errorf("card number is required")
	}
	if len(c.PlayerIDs) == 0 {
		return fmt.Errorf("card needs at least one player")
	}

	return nil
}
