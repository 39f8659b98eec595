// Package matching partitions catalog candidates into exact and fuzzy
// buckets for a raw checklist mention. Exact means the folded candidate name
// contains the folded query (tolerating suffix noise such as "Jr." already in
// the catalog name); fuzzy means the candidate is close enough to cover
// typos. The partition is deterministic for a given (query, candidates) pair
// so re-derived matches on other rows always agree.
package matching

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/platform/normalize"
)

// FuzzyLimit caps the fuzzy bucket at a reviewable display count.
const FuzzyLimit = 5

// Players partitions player candidates for one raw mention.
func Players(query string, candidates []player.Player) card.PlayerMatches {
	names := make([]string, len(candidates))
	for i, candidate := range candidates {
		names[i] = candidate.Name
	}

	exactIdx, fuzzyIdx := partition(query, names)
	out := card.PlayerMatches{
		Exact: make([]player.Player, 0, len(exactIdx)),
		Fuzzy: make([]player.Player, 0, len(fuzzyIdx)),
	}
	for _, i := range exactIdx {
		out.Exact = append(out.Exact, candidates[i])
	}
	for _, i := range fuzzyIdx {
		out.Fuzzy = append(out.Fuzzy, candidates[i])
	}
	return out
}

// Teams partitions team candidates for one raw team name.
func Teams(query string, candidates []team.Team) card.TeamMatches {
	names := make([]string, len(candidates))
	for i, candidate := range candidates {
		names[i] = candidate.Name
	}

	exactIdx, fuzzyIdx := partition(query, names)
	out := card.TeamMatches{
		Exact: make([]team.Team, 0, len(exactIdx)),
		Fuzzy: make([]team.Team, 0, len(fuzzyIdx)),
	}
	for _, i := range exactIdx {
		out.Exact = append(out.Exact, candidates[i])
	}
	for _, i := range fuzzyIdx {
		out.Fuzzy = append(out.Fuzzy, candidates[i])
	}
	return out
}

type fuzzyRank struct {
	index    int
	distance int
}

// partition returns candidate indexes for the exact and fuzzy buckets. Exact
// keeps candidate order; fuzzy is ranked by edit distance with candidate
// order as the tiebreak and is a strict complement of exact, capped at
// FuzzyLimit.
func partition(query string, names []string) ([]int, []int) {
	folded := normalize.Fold(query)
	if folded == "" {
		return nil, nil
	}

	exact := make([]int, 0, 2)
	ranks := make([]fuzzyRank, 0, 8)
	ceiling := distanceCeiling(folded)
	for i, name := range names {
		candidate := normalize.Fold(name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, folded) {
			exact = append(exact, i)
			continue
		}

		distance := fuzzy.LevenshteinDistance(folded, candidate)
		if distance <= ceiling || fuzzy.MatchNormalizedFold(query, name) {
			ranks = append(ranks, fuzzyRank{index: i, distance: distance})
		}
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].distance != ranks[j].distance {
			return ranks[i].distance < ranks[j].distance
		}
		return ranks[i].index < ranks[j].index
	})
	if len(ranks) > FuzzyLimit {
		ranks = ranks[:FuzzyLimit]
	}

	fuzzyIdx := make([]int, 0, len(ranks))
	for _, rank := range ranks {
		fuzzyIdx = append(fuzzyIdx, rank.index)
	}
	return exact, fuzzyIdx
}

// distanceCeiling scales typo tolerance with query length: short names allow
// two edits, longer ones a quarter of their length.
func distanceCeiling(folded string) int {
	ceiling := len(folded) / 4
	if ceiling < 2 {
		ceiling = 2
	}
	return ceiling
}
