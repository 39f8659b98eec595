package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/platform/normalize"
	"github.com/slabtrack/cardstock/internal/usecase"
)

// CatalogProvider is the in-memory stand-in for the remote catalog service,
// used when CATALOG_ENABLED=false. Creations are kept for the process
// lifetime only.
type CatalogProvider struct {
	mu           sync.Mutex
	players      map[string][]player.Player
	teams        map[string][]team.Team
	links        []playerteam.Link
	nextPlayerID int64
	nextTeamID   int64
	linkSeq      int64
}

func NewCatalogProvider(seed Seed) *CatalogProvider {
	players := make(map[string][]player.Player, len(seed.PlayersByCatalog))
	var maxPlayerID int64
	for catalogID, items := range seed.PlayersByCatalog {
		players[catalogID] = append([]player.Player(nil), items...)
		for _, p := range items {
			if p.ID > maxPlayerID {
				maxPlayerID = p.ID
			}
		}
	}

	teams := make(map[string][]team.Team, len(seed.TeamsByOrganization))
	var maxTeamID int64
	for organizationID, items := range seed.TeamsByOrganization {
		teams[organizationID] = append([]team.Team(nil), items...)
		for _, t := range items {
			if t.ID > maxTeamID {
				maxTeamID = t.ID
			}
		}
	}

	return &CatalogProvider{
		players:      players,
		teams:        teams,
		links:        append([]playerteam.Link(nil), seed.Links...),
		nextPlayerID: maxPlayerID + 1,
		nextTeamID:   maxTeamID + 1,
	}
}

func (p *CatalogProvider) SearchPlayers(_ context.Context, catalogID string) ([]player.Player, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]player.Player(nil), p.players[catalogID]...), nil
}

func (p *CatalogProvider) SearchTeams(_ context.Context, organizationID string) ([]team.Team, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]team.Team(nil), p.teams[organizationID]...), nil
}

func (p *CatalogProvider) CreatePlayer(_ context.Context, firstName, lastName string) (player.Player, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	fullName := player.FullName(firstName, lastName)
	if fullName == "" {
		return player.Player{}, fmt.Errorf("%w: player name is required", usecase.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, items := range p.players {
		for _, existing := range items {
			if normalize.Fold(existing.Name) == normalize.Fold(fullName) {
				return player.Player{}, fmt.Errorf("%w: player %q", usecase.ErrAlreadyExists, fullName)
			}
		}
	}

	created := player.Player{
		ID:        p.nextPlayerID,
		Name:      fullName,
		FirstName: firstName,
		LastName:  lastName,
	}
	p.nextPlayerID++
	// Creations land in every known catalog; the in-memory provider has no
	// per-catalog ownership the way the remote service does.
	for catalogID := range p.players {
		p.players[catalogID] = append(p.players[catalogID], created)
	}

	return created, nil
}

func (p *CatalogProvider) CreateTeam(_ context.Context, name, organizationID string) (team.Team, error) {
	name = strings.TrimSpace(name)
	organizationID = strings.TrimSpace(organizationID)
	if name == "" {
		return team.Team{}, fmt.Errorf("%w: team name is required", usecase.ErrInvalidInput)
	}
	if organizationID == "" {
		return team.Team{}, fmt.Errorf("%w: organization id is required", usecase.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.teams[organizationID] {
		if normalize.Fold(existing.Name) == normalize.Fold(name) {
			return team.Team{}, fmt.Errorf("%w: team %q", usecase.ErrAlreadyExists, name)
		}
	}

	created := team.Team{
		ID:             p.nextTeamID,
		OrganizationID: organizationID,
		Name:           name,
	}
	p.nextTeamID++
	p.teams[organizationID] = append(p.teams[organizationID], created)

	return created, nil
}

func (p *CatalogProvider) CreateOrFetchPlayerTeamLink(_ context.Context, playerID, teamID int64) (playerteam.Link, error) {
	if playerID <= 0 || teamID <= 0 {
		return playerteam.Link{}, fmt.Errorf("%w: player id and team id are required", usecase.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, link := range p.links {
		if link.PlayerID == playerID && link.TeamID == teamID {
			return link, nil
		}
	}

	p.linkSeq++
	link := playerteam.Link{
		ID:       fmt.Sprintf("pt_mem_%d", p.linkSeq),
		PlayerID: playerID,
		TeamID:   teamID,
	}
	p.links = append(p.links, link)

	return link, nil
}
