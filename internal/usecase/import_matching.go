package usecase

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/matching"
)

// seedSessionMatches derives exact and fuzzy candidate buckets for every row
// against the session's catalog snapshots. Rows are independent, so the pass
// fans out one task per row; each task only writes its own row.
func seedSessionMatches(rows []card.ParsedRow, players []player.Player, teams []team.Team, maxWorkers int) {
	workers := maxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(rows) {
		workers = len(rows)
	}
	if workers < 1 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers)
	for i := range rows {
		row := &rows[i]
		p.Go(func() {
			seedRowMatches(row, players, teams)
		})
	}
	p.Wait()
}

func seedRowMatches(row *card.ParsedRow, players []player.Player, teams []team.Team) {
	row.TeamMatches = card.TeamMatches{Exact: []team.Team{}, Fuzzy: []team.Team{}}
	for _, name := range row.TeamNames {
		mergeTeamMatches(&row.TeamMatches, matching.Teams(name, teams))
	}

	for i := range row.Players {
		mention := &row.Players[i]
		mention.Matches = matching.Players(mention.Name, players)

		mention.TeamMatches = card.TeamMatches{Exact: []team.Team{}, Fuzzy: []team.Team{}}
		for _, name := range mention.TeamNames {
			mergeTeamMatches(&mention.TeamMatches, matching.Teams(name, teams))
		}

		// The authoritative check-team set starts from the mention's own
		// exact matches and falls back to the card-level exact set when the
		// mention carries no team references of its own.
		checkSource := mention.TeamMatches.Exact
		if len(mention.TeamNames) == 0 {
			checkSource = row.TeamMatches.Exact
		}
		mention.CheckTeams = card.TeamMatches{
			Exact: append([]team.Team{}, checkSource...),
			Fuzzy: []team.Team{},
		}
	}
}

// mergeTeamMatches unions bucket contents, deduplicating by team id. A team
// already exact never reappears in fuzzy.
func mergeTeamMatches(dst *card.TeamMatches, src card.TeamMatches) {
	for _, t := range src.Exact {
		appendExactTeam(dst, t)
	}
	for _, t := range src.Fuzzy {
		if teamInBucket(dst.Exact, t.ID) || teamInBucket(dst.Fuzzy, t.ID) {
			continue
		}
		dst.Fuzzy = append(dst.Fuzzy, t)
	}
}

func teamInBucket(bucket []team.Team, teamID int64) bool {
	for _, t := range bucket {
		if t.ID == teamID {
			return true
		}
	}
	return false
}
