package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/slabtrack/cardstock/internal/usecase"
)

func TestCatalogProvider_CreatePlayerAssignsNextID(t *testing.T) {
	provider := NewCatalogProvider(DefaultSeed())

	created, err := provider.CreatePlayer(context.Background(), "Bobby", "Witt Jr.")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if created.ID != 105 {
		t.Fatalf("expected id 105 after seeded players, got %d", created.ID)
	}
	if created.Name != "Bobby Witt Jr." {
		t.Fatalf("unexpected full name: %q", created.Name)
	}

	players, err := provider.SearchPlayers(context.Background(), SeedCatalogID)
	if err != nil {
		t.Fatalf("search players: %v", err)
	}
	found := false
	for _, p := range players {
		if p.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created player missing from search results")
	}
}

func TestCatalogProvider_CreatePlayerRejectsDuplicateName(t *testing.T) {
	provider := NewCatalogProvider(DefaultSeed())

	_, err := provider.CreatePlayer(context.Background(), "Mike", "Trout")
	if !errors.Is(err, usecase.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCatalogProvider_CreateTeamRejectsDuplicateFoldedName(t *testing.T) {
	provider := NewCatalogProvider(DefaultSeed())

	_, err := provider.CreateTeam(context.Background(), "los angeles angels", SeedOrganizationID)
	if !errors.Is(err, usecase.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCatalogProvider_CreateOrFetchLinkIsIdempotent(t *testing.T) {
	provider := NewCatalogProvider(DefaultSeed())

	// Julio Rodriguez (104) has no seeded association with the Mariners (4).
	first, err := provider.CreateOrFetchPlayerTeamLink(context.Background(), 104, 4)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	second, err := provider.CreateOrFetchPlayerTeamLink(context.Background(), 104, 4)
	if err != nil {
		t.Fatalf("fetch link: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected idempotent link, got %q and %q", first.ID, second.ID)
	}

	seeded, err := provider.CreateOrFetchPlayerTeamLink(context.Background(), 101, 1)
	if err != nil {
		t.Fatalf("fetch seeded link: %v", err)
	}
	if seeded.ID != "pt_101_1" {
		t.Fatalf("expected seeded link id, got %q", seeded.ID)
	}
}
