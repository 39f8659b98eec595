package usecase

import (
	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/platform/normalize"
)

// ReadinessReason codes why a row is not yet import-ready.
type ReadinessReason string

const (
	ReasonMissingPlayer ReadinessReason = "MISSING_PLAYER"
	ReasonMissingTeam   ReadinessReason = "MISSING_TEAM"
	ReasonMissingLink   ReadinessReason = "MISSING_LINK"
)

// RowReadiness is the verdict for one row. Reasons are ordered by precedence:
// a missing player is always reported before missing teams or links.
type RowReadiness struct {
	Ready   bool
	Reasons []ReadinessReason
}

// ImportSummary aggregates readiness over a working set.
type ImportSummary struct {
	ReadyCount     int `json:"ready_count"`
	NeedsWorkCount int `json:"needs_work_count"`
}

// EvaluateRow is a pure function over a row snapshot; it never mutates its
// input. A row is ready when every player mention has a selection, every
// card-level team name is covered by a resolved team, and every mention's
// authoritative check team has a confirmed link for the selected player.
func EvaluateRow(row card.ParsedRow) RowReadiness {
	reasons := make([]ReadinessReason, 0, 3)

	if missingPlayer(row) {
		reasons = append(reasons, ReasonMissingPlayer)
	}
	if missingTeam(row) {
		reasons = append(reasons, ReasonMissingTeam)
	}
	if missingLink(row) {
		reasons = append(reasons, ReasonMissingLink)
	}

	return RowReadiness{
		Ready:   len(reasons) == 0,
		Reasons: reasons,
	}
}

func missingPlayer(row card.ParsedRow) bool {
	for _, mention := range row.Players {
		if mention.SelectedPlayer == nil {
			return true
		}
	}
	return false
}

// missingTeam checks card-level team names against resolved exact matches.
// Coverage is folded containment, not equality: a resolved "Los Angeles
// Dodgers" covers the mention "Dodgers".
func missingTeam(row card.ParsedRow) bool {
	for _, name := range row.TeamNames {
		covered := false
		for _, resolved := range row.TeamMatches.Exact {
			if normalize.Contains(resolved.Name, name) {
				covered = true
				break
			}
		}
		if !covered {
			return true
		}
	}
	return false
}

func missingLink(row card.ParsedRow) bool {
	for _, mention := range row.Players {
		if mention.SelectedPlayer == nil {
			continue
		}
		for _, checkTeam := range mention.CheckTeams.Exact {
			if !mention.HasLink(mention.SelectedPlayer.ID, checkTeam.ID) {
				return true
			}
		}
	}
	return false
}

// Summarize folds EvaluateRow over the working set.
func Summarize(rows []card.ParsedRow) ImportSummary {
	summary := ImportSummary{}
	for _, row := range rows {
		if EvaluateRow(row).Ready {
			summary.ReadyCount++
			continue
		}
		summary.NeedsWorkCount++
	}
	return summary
}

// FirstUnready locates the first not-ready row in the given display order,
// for operator "scroll to problem" navigation. Returns -1 when every row is
// ready.
func FirstUnready(orderedRows []card.ParsedRow) int {
	for i, row := range orderedRows {
		if !EvaluateRow(row).Ready {
			return i
		}
	}
	return -1
}
