package usecase

import (
	"strings"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
)

// Broadcast propagation: once the operator resolves a raw name, the same
// resolution is applied to every other row and mention where the identical
// raw text is still unresolved, in one consolidated pass over the working
// set. Propagation only fills gaps; a mention that already carries a
// different explicit selection is never overwritten. The matching key is the
// raw text under case-insensitive equality, not fuzzy similarity.

// broadcastPlayer applies a resolved player to every unresolved mention whose
// raw name equals rawName. Confirmed links already known to the cache are
// attached for each target mention's check teams. Returns the mutated rows
// and the number of mentions touched.
func broadcastPlayer(rows []card.ParsedRow, rawName string, resolved player.Player, cache *EntityResolutionCache) ([]card.ParsedRow, int) {
	touched := 0
	out := make([]card.ParsedRow, len(rows))
	for i, row := range rows {
		target := -1
		for j, mention := range row.Players {
			if mention.SelectedPlayer == nil && strings.EqualFold(mention.Name, rawName) {
				target = j
				break
			}
		}
		if target < 0 {
			out[i] = row
			continue
		}

		next := row.Clone()
		for j := range next.Players {
			mention := &next.Players[j]
			if mention.SelectedPlayer != nil || !strings.EqualFold(mention.Name, rawName) {
				continue
			}
			selected := resolved
			selected.Teams = append([]player.TeamRef(nil), resolved.Teams...)
			mention.SelectedPlayer = &selected
			attachCachedLinks(mention, cache)
			touched++
		}
		out[i] = next
	}
	return out, touched
}

// broadcastTeam applies a resolved team wherever the raw team name appears:
// card-level team matches, mention-level team matches and selections, and
// the mention's authoritative check-team set. Cached links for mentions that
// already have a selected player are attached in the same pass.
func broadcastTeam(rows []card.ParsedRow, rawTeamName string, resolved team.Team, cache *EntityResolutionCache) ([]card.ParsedRow, int) {
	touched := 0
	out := make([]card.ParsedRow, len(rows))
	for i, row := range rows {
		if !rowMentionsTeam(row, rawTeamName) {
			out[i] = row
			continue
		}
		cardLevelHit := containsFold(row.TeamNames, rawTeamName)

		next := row.Clone()
		for nameIdx, name := range next.TeamNames {
			if !strings.EqualFold(name, rawTeamName) {
				continue
			}
			if appendExactTeam(&next.TeamMatches, resolved) {
				touched++
			}
			next.TeamNames[nameIdx] = resolved.Name
		}

		for j := range next.Players {
			mention := &next.Players[j]
			applied := false
			for nameIdx, name := range mention.TeamNames {
				if !strings.EqualFold(name, rawTeamName) {
					continue
				}
				appendExactTeam(&mention.TeamMatches, resolved)
				if mention.SelectedTeams[nameIdx] == nil {
					selected := resolved
					mention.SelectedTeams[nameIdx] = &selected
				}
				appendExactTeam(&mention.CheckTeams, resolved)
				applied = true
			}
			// Mentions without team references of their own check against
			// the card-level set, so a card-level resolution reaches them.
			if !applied && cardLevelHit && len(mention.TeamNames) == 0 {
				applied = appendExactTeam(&mention.CheckTeams, resolved)
			}
			if !applied {
				continue
			}
			touched++
			if mention.SelectedPlayer != nil {
				attachCachedLinks(mention, cache)
			}
		}
		out[i] = next
	}
	return out, touched
}

// broadcastLink attaches a confirmed link to every mention whose selected
// player matches and whose check teams include the linked team.
func broadcastLink(rows []card.ParsedRow, link playerteam.Link) ([]card.ParsedRow, int) {
	touched := 0
	out := make([]card.ParsedRow, len(rows))
	for i, row := range rows {
		if !rowWantsLink(row, link) {
			out[i] = row
			continue
		}

		next := row.Clone()
		for j := range next.Players {
			mention := &next.Players[j]
			if !mentionWantsLink(*mention, link) {
				continue
			}
			if appendLink(mention, link) {
				touched++
			}
		}
		out[i] = next
	}
	return out, touched
}

// pendingLinkPairs lists the distinct (playerID, teamID) pairs that still
// need remote confirmation before a team resolution can be broadcast: every
// mention referencing the raw team name whose player is already selected and
// whose pair is not in the cache.
func pendingLinkPairs(rows []card.ParsedRow, rawTeamName string, resolved team.Team, cache *EntityResolutionCache) []int64 {
	seen := make(map[int64]struct{})
	pairs := make([]int64, 0, 4)
	for _, row := range rows {
		cardLevelHit := containsFold(row.TeamNames, rawTeamName)
		for _, mention := range row.Players {
			if mention.SelectedPlayer == nil {
				continue
			}
			mentionHit := containsFold(mention.TeamNames, rawTeamName)
			if !mentionHit && !(cardLevelHit && len(mention.TeamNames) == 0) {
				continue
			}
			playerID := mention.SelectedPlayer.ID
			if cache.Has(playerID, resolved.ID) {
				continue
			}
			if _, ok := seen[playerID]; ok {
				continue
			}
			seen[playerID] = struct{}{}
			pairs = append(pairs, playerID)
		}
	}
	return pairs
}

func rowMentionsTeam(row card.ParsedRow, rawTeamName string) bool {
	if containsFold(row.TeamNames, rawTeamName) {
		return true
	}
	for _, mention := range row.Players {
		if containsFold(mention.TeamNames, rawTeamName) {
			return true
		}
	}
	return false
}

func rowWantsLink(row card.ParsedRow, link playerteam.Link) bool {
	for _, mention := range row.Players {
		if mentionWantsLink(mention, link) {
			return true
		}
	}
	return false
}

func mentionWantsLink(mention card.PlayerMention, link playerteam.Link) bool {
	if mention.SelectedPlayer == nil || mention.SelectedPlayer.ID != link.PlayerID {
		return false
	}
	if mention.HasLink(link.PlayerID, link.TeamID) {
		return false
	}
	for _, checkTeam := range mention.CheckTeams.Exact {
		if checkTeam.ID == link.TeamID {
			return true
		}
	}
	return false
}

// attachCachedLinks copies every cache-confirmed link for the mention's
// check teams into the mention, keeping LinkMatches and SelectedLinks in
// sync. No remote calls happen here.
func attachCachedLinks(mention *card.PlayerMention, cache *EntityResolutionCache) {
	if mention.SelectedPlayer == nil || cache == nil {
		return
	}
	for _, checkTeam := range mention.CheckTeams.Exact {
		link, ok := cache.Lookup(mention.SelectedPlayer.ID, checkTeam.ID)
		if !ok {
			continue
		}
		appendLink(mention, link)
	}
}

// appendLink adds a link to both link slices, deduplicating on the
// (playerID, teamID) pair.
func appendLink(mention *card.PlayerMention, link playerteam.Link) bool {
	if mention.HasLink(link.PlayerID, link.TeamID) {
		return false
	}
	mention.LinkMatches = append(mention.LinkMatches, link)
	mention.SelectedLinks = append(mention.SelectedLinks, link)
	return true
}

func appendExactTeam(buckets *card.TeamMatches, resolved team.Team) bool {
	for _, existing := range buckets.Exact {
		if existing.ID == resolved.ID {
			return false
		}
	}
	buckets.Exact = append(buckets.Exact, resolved)
	removeFuzzyTeam(buckets, resolved.ID)
	return true
}

// removeFuzzyTeam promotes by moving, not copying: once a team is exact it
// leaves the fuzzy bucket.
func removeFuzzyTeam(buckets *card.TeamMatches, teamID int64) {
	for i, candidate := range buckets.Fuzzy {
		if candidate.ID == teamID {
			buckets.Fuzzy = append(buckets.Fuzzy[:i], buckets.Fuzzy[i+1:]...)
			return
		}
	}
}

func containsFold(names []string, raw string) bool {
	for _, name := range names {
		if strings.EqualFold(name, raw) {
			return true
		}
	}
	return false
}
