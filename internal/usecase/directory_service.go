package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/platform/cache"
)

// DirectoryService serves the read side of the catalog: player and team
// directories backing the resolution pickers, link lookups, and the
// committed card browser. Directory listings are cached; single-flight
// loading in the store keeps concurrent misses to one repository query.
type DirectoryService struct {
	playerRepo player.Repository
	teamRepo   team.Repository
	linkRepo   playerteam.Repository
	cardRepo   card.Repository
	cache      *cache.Store
	logger     *slog.Logger
}

func NewDirectoryService(
	playerRepo player.Repository,
	teamRepo team.Repository,
	linkRepo playerteam.Repository,
	cardRepo card.Repository,
	store *cache.Store,
	logger *slog.Logger,
) *DirectoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryService{
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		linkRepo:   linkRepo,
		cardRepo:   cardRepo,
		cache:      store,
		logger:     logger,
	}
}

// Players lists the player directory for one catalog.
func (s *DirectoryService) Players(ctx context.Context, catalogID string) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DirectoryService.Players")
	defer span.End()

	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return nil, fmt.Errorf("%w: catalog id is required", ErrInvalidInput)
	}
	if s.playerRepo == nil {
		return nil, fmt.Errorf("%w: player repository is not configured", ErrDependencyUnavailable)
	}

	value, err := s.cache.GetOrLoad(ctx, "directory:players:"+catalogID, func(ctx context.Context) (any, error) {
		items, err := s.playerRepo.List(ctx, catalogID)
		if err != nil {
			return nil, fmt.Errorf("list players catalog=%s: %w", catalogID, err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	items, ok := value.([]player.Player)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload for players catalog=%s", catalogID)
	}
	return items, nil
}

// Teams lists the team directory for one organization.
func (s *DirectoryService) Teams(ctx context.Context, organizationID string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DirectoryService.Teams")
	defer span.End()

	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	if s.teamRepo == nil {
		return nil, fmt.Errorf("%w: team repository is not configured", ErrDependencyUnavailable)
	}

	value, err := s.cache.GetOrLoad(ctx, "directory:teams:"+organizationID, func(ctx context.Context) (any, error) {
		items, err := s.teamRepo.ListByOrganization(ctx, organizationID)
		if err != nil {
			return nil, fmt.Errorf("list teams organization=%s: %w", organizationID, err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	items, ok := value.([]team.Team)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload for teams organization=%s", organizationID)
	}
	return items, nil
}

// Links lists confirmed player-team links for a set of players. Link state
// changes during active imports, so this read is never cached.
func (s *DirectoryService) Links(ctx context.Context, playerIDs []int64) ([]playerteam.Link, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DirectoryService.Links")
	defer span.End()

	if len(playerIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one player id is required", ErrInvalidInput)
	}
	if s.linkRepo == nil {
		return nil, fmt.Errorf("%w: link repository is not configured", ErrDependencyUnavailable)
	}

	items, err := s.linkRepo.ListByPlayerIDs(ctx, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("list player-team links: %w", err)
	}
	return items, nil
}

// Cards lists committed cards for the collection browser.
func (s *DirectoryService) Cards(ctx context.Context, filter card.ListFilter) ([]card.Card, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DirectoryService.Cards")
	defer span.End()

	if s.cardRepo == nil {
		return nil, fmt.Errorf("%w: card repository is not configured", ErrDependencyUnavailable)
	}
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}

	items, err := s.cardRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return items, nil
}

// InvalidateDirectories drops cached directory listings, e.g. after new
// players or teams were created during an import.
func (s *DirectoryService) InvalidateDirectories(ctx context.Context) {
	s.cache.DeletePrefix(ctx, "directory:")
}
