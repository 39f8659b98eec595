package memory

import (
	"context"
	"sync"

	"github.com/slabtrack/cardstock/internal/domain/playerteam"
)

type PlayerTeamRepository struct {
	mu            sync.RWMutex
	linksByPlayer map[int64][]playerteam.Link
}

func NewPlayerTeamRepository(links []playerteam.Link) *PlayerTeamRepository {
	linksByPlayer := make(map[int64][]playerteam.Link)
	for _, link := range links {
		linksByPlayer[link.PlayerID] = append(linksByPlayer[link.PlayerID], link)
	}

	return &PlayerTeamRepository{
		linksByPlayer: linksByPlayer,
	}
}

func (r *PlayerTeamRepository) ListByPlayerIDs(_ context.Context, playerIDs []int64) ([]playerteam.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]playerteam.Link, 0, len(playerIDs))
	for _, id := range playerIDs {
		out = append(out, r.linksByPlayer[id]...)
	}

	return out, nil
}
