package memory

import (
	"context"
	"sync"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/platform/normalize"
)

type CardRepository struct {
	mu    sync.RWMutex
	cards []card.Card
}

func NewCardRepository(cards []card.Card) *CardRepository {
	return &CardRepository{
		cards: append([]card.Card(nil), cards...),
	}
}

func (r *CardRepository) InsertBatch(_ context.Context, cards []card.Card) error {
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.cards = append(r.cards, cards...)
	r.mu.Unlock()

	return nil
}

func (r *CardRepository) List(_ context.Context, filter card.ListFilter) ([]card.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]card.Card, 0, len(r.cards))
	for _, c := range r.cards {
		if filter.Search != "" && !normalize.Contains(c.Number, filter.Search) && !normalize.Contains(c.Notes, filter.Search) {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}

	return out, nil
}
