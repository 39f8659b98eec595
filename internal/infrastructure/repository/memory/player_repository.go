package memory

import (
	"context"
	"sync"

	"github.com/slabtrack/cardstock/internal/domain/player"
)

type PlayerRepository struct {
	mu               sync.RWMutex
	playersByCatalog map[string][]player.Player
	index            map[int64]player.Player
}

func NewPlayerRepository(playersByCatalog map[string][]player.Player) *PlayerRepository {
	index := make(map[int64]player.Player)
	for _, players := range playersByCatalog {
		for _, p := range players {
			index[p.ID] = p
		}
	}

	return &PlayerRepository{
		playersByCatalog: playersByCatalog,
		index:            index,
	}
}

func (r *PlayerRepository) List(_ context.Context, catalogID string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := r.playersByCatalog[catalogID]
	out := make([]player.Player, 0, len(players))
	out = append(out, players...)

	return out, nil
}

func (r *PlayerRepository) GetByIDs(_ context.Context, playerIDs []int64) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, ok := r.index[id]
		if !ok {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}
