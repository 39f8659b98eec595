package memory

import (
	"context"
	"sync"

	"github.com/slabtrack/cardstock/internal/domain/team"
)

type TeamRepository struct {
	mu                  sync.RWMutex
	teamsByOrganization map[string][]team.Team
	index               map[int64]team.Team
}

func NewTeamRepository(teamsByOrganization map[string][]team.Team) *TeamRepository {
	index := make(map[int64]team.Team)
	for _, teams := range teamsByOrganization {
		for _, t := range teams {
			index[t.ID] = t
		}
	}

	return &TeamRepository{
		teamsByOrganization: teamsByOrganization,
		index:               index,
	}
}

func (r *TeamRepository) ListByOrganization(_ context.Context, organizationID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := r.teamsByOrganization[organizationID]
	out := make([]team.Team, 0, len(teams))
	out = append(out, teams...)

	return out, nil
}

func (r *TeamRepository) GetByIDs(_ context.Context, teamIDs []int64) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(teamIDs))
	for _, id := range teamIDs {
		t, ok := r.index[id]
		if !ok {
			continue
		}
		out = append(out, t)
	}

	return out, nil
}
