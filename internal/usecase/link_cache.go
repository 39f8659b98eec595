package usecase

import (
	"sync"

	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
)

type linkKey struct {
	playerID int64
	teamID   int64
}

// EntityResolutionCache remembers which player-team links are already
// confirmed to exist during one import session, so the engine never issues a
// duplicate remote creation for the same pair. One cache is constructed per
// session and passed explicitly to every component that needs it; it is
// cleared when the session ends.
type EntityResolutionCache struct {
	mu    sync.RWMutex
	links map[linkKey]playerteam.Link
}

func NewEntityResolutionCache() *EntityResolutionCache {
	return &EntityResolutionCache{
		links: make(map[linkKey]playerteam.Link),
	}
}

func (c *EntityResolutionCache) Has(playerID, teamID int64) bool {
	_, ok := c.Lookup(playerID, teamID)
	return ok
}

func (c *EntityResolutionCache) Lookup(playerID, teamID int64) (playerteam.Link, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	link, ok := c.links[linkKey{playerID: playerID, teamID: teamID}]
	return link, ok
}

// Record stores a confirmed link. Recording the same (playerID, teamID) pair
// again keeps the first entry, so real ids are never clobbered by later
// placeholder synthesis.
func (c *EntityResolutionCache) Record(link playerteam.Link) {
	if link.PlayerID <= 0 || link.TeamID <= 0 {
		return
	}

	key := linkKey{playerID: link.PlayerID, teamID: link.TeamID}
	c.mu.Lock()
	if _, ok := c.links[key]; !ok {
		c.links[key] = link
	}
	c.mu.Unlock()
}

// SeedFromPlayer records every association embedded in a resolved catalog
// player record. These links existed before the import began and never need
// a remote creation call.
func (c *EntityResolutionCache) SeedFromPlayer(p player.Player) {
	for _, ref := range p.Teams {
		id := ref.PlayerTeamID
		if id == "" {
			id = playerteam.ExistingLinkID(p.ID, ref.TeamID)
		}
		c.Record(playerteam.Link{
			ID:         id,
			PlayerID:   p.ID,
			TeamID:     ref.TeamID,
			PlayerName: p.Name,
			TeamName:   ref.TeamName,
		})
	}
}

func (c *EntityResolutionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.links)
}

func (c *EntityResolutionCache) Clear() {
	c.mu.Lock()
	c.links = make(map[linkKey]playerteam.Link)
	c.mu.Unlock()
}
