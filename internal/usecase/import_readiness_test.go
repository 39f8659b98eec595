package usecase

import (
	"testing"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
)

func readyRow(sortOrder int) card.ParsedRow {
	angels := team.Team{ID: 9, Name: "Los Angeles Angels", OrganizationID: "org-1"}
	trout := player.Player{ID: 5, Name: "Mike Trout"}

	mention := card.NewPlayerMention("Mike Trout", nil)
	mention.SelectedPlayer = &trout
	mention.CheckTeams.Exact = []team.Team{angels}
	link := playerteam.Link{ID: "pt_1", PlayerID: 5, TeamID: 9}
	mention.LinkMatches = []playerteam.Link{link}
	mention.SelectedLinks = []playerteam.Link{link}

	row := card.NewParsedRow(sortOrder, "27")
	row.Players = []card.PlayerMention{mention}
	row.TeamNames = []string{"Angels"}
	row.TeamMatches.Exact = []team.Team{angels}
	return row
}

func TestEvaluateRowReady(t *testing.T) {
	verdict := EvaluateRow(readyRow(1))
	if !verdict.Ready || len(verdict.Reasons) != 0 {
		t.Fatalf("expected ready row, got %+v", verdict)
	}
}

func TestEvaluateRowReasonPrecedence(t *testing.T) {
	row := readyRow(1)
	row.Players[0].SelectedPlayer = nil
	row.TeamMatches.Exact = nil

	verdict := EvaluateRow(row)
	if verdict.Ready {
		t.Fatalf("expected not ready")
	}
	if len(verdict.Reasons) != 2 {
		t.Fatalf("expected two reasons, got %+v", verdict.Reasons)
	}
	if verdict.Reasons[0] != ReasonMissingPlayer || verdict.Reasons[1] != ReasonMissingTeam {
		t.Fatalf("expected player reason before team reason, got %+v", verdict.Reasons)
	}
}

func TestEvaluateRowMissingLink(t *testing.T) {
	row := readyRow(1)
	row.Players[0].LinkMatches = nil
	row.Players[0].SelectedLinks = nil

	verdict := EvaluateRow(row)
	if verdict.Ready {
		t.Fatalf("expected not ready without a confirmed link")
	}
	if len(verdict.Reasons) != 1 || verdict.Reasons[0] != ReasonMissingLink {
		t.Fatalf("expected only MISSING_LINK, got %+v", verdict.Reasons)
	}
}

func TestEvaluateRowTeamCoverageByContainment(t *testing.T) {
	// The resolved canonical name covers the shorter raw mention.
	row := readyRow(1)
	row.TeamNames = []string{"Angels"}
	if verdict := EvaluateRow(row); !verdict.Ready {
		t.Fatalf("expected containment to cover the raw name, got %+v", verdict)
	}

	row.TeamNames = []string{"Angels", "Dodgers"}
	verdict := EvaluateRow(row)
	if verdict.Ready {
		t.Fatalf("expected uncovered team name to block readiness")
	}
	if len(verdict.Reasons) != 1 || verdict.Reasons[0] != ReasonMissingTeam {
		t.Fatalf("expected MISSING_TEAM, got %+v", verdict.Reasons)
	}
}

func TestSummarizeAndFirstUnready(t *testing.T) {
	notReady := readyRow(2)
	notReady.Players[0].SelectedPlayer = nil

	rows := []card.ParsedRow{readyRow(1), notReady, readyRow(3)}

	summary := Summarize(rows)
	if summary.ReadyCount != 2 || summary.NeedsWorkCount != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if idx := FirstUnready(rows); idx != 1 {
		t.Fatalf("expected first unready index 1, got %d", idx)
	}

	rows[1] = readyRow(2)
	if idx := FirstUnready(rows); idx != -1 {
		t.Fatalf("expected -1 when everything is ready, got %d", idx)
	}
}
