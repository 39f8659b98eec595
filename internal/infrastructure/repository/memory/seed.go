package memory

import (
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
)

// Seed is the fixture dataset for DB-less runs and local development. The
// default catalog is deliberately small; the interesting shapes are players
// with embedded associations and a player without any.
type Seed struct {
	PlayersByCatalog    map[string][]player.Player
	TeamsByOrganization map[string][]team.Team
	Links               []playerteam.Link
}

const (
	SeedCatalogID      = "catalog-mlb-2025"
	SeedOrganizationID = "org-mlb"
)

func DefaultSeed() Seed {
	angels := team.Team{ID: 1, OrganizationID: SeedOrganizationID, Name: "Los Angeles Angels", Abbreviation: "LAA", PrimaryColor: "#BA0021", SecondaryColor: "#003263"}
	dodgers := team.Team{ID: 2, OrganizationID: SeedOrganizationID, Name: "Los Angeles Dodgers", Abbreviation: "LAD", PrimaryColor: "#005A9C", SecondaryColor: "#EF3E42"}
	braves := team.Team{ID: 3, OrganizationID: SeedOrganizationID, Name: "Atlanta Braves", Abbreviation: "ATL", PrimaryColor: "#CE1141", SecondaryColor: "#13274F"}
	mariners := team.Team{ID: 4, OrganizationID: SeedOrganizationID, Name: "Seattle Mariners", Abbreviation: "SEA", PrimaryColor: "#0C2C56", SecondaryColor: "#005C5C"}

	trout := player.Player{
		ID: 101, Name: "Mike Trout", FirstName: "Mike", LastName: "Trout",
		Teams: []player.TeamRef{{TeamID: angels.ID, PlayerTeamID: "pt_101_1", TeamName: angels.Name}},
	}
	ohtani := player.Player{
		ID: 102, Name: "Shohei Ohtani", FirstName: "Shohei", LastName: "Ohtani",
		Teams: []player.TeamRef{
			{TeamID: angels.ID, PlayerTeamID: "pt_102_1", TeamName: angels.Name},
			{TeamID: dodgers.ID, PlayerTeamID: "pt_102_2", TeamName: dodgers.Name},
		},
	}
	acuna := player.Player{
		ID: 103, Name: "Ronald Acuña Jr.", FirstName: "Ronald", LastName: "Acuña Jr.",
		Teams: []player.TeamRef{{TeamID: braves.ID, PlayerTeamID: "pt_103_3", TeamName: braves.Name}},
	}
	rodriguez := player.Player{ID: 104, Name: "Julio Rodriguez", FirstName: "Julio", LastName: "Rodriguez"}

	links := make([]playerteam.Link, 0, 8)
	for _, p := range []player.Player{trout, ohtani, acuna} {
		for _, ref := range p.Teams {
			links = append(links, playerteam.Link{
				ID:         ref.PlayerTeamID,
				PlayerID:   p.ID,
				TeamID:     ref.TeamID,
				PlayerName: p.Name,
				TeamName:   ref.TeamName,
			})
		}
	}

	return Seed{
		PlayersByCatalog: map[string][]player.Player{
			SeedCatalogID: {trout, ohtani, acuna, rodriguez},
		},
		TeamsByOrganization: map[string][]team.Team{
			SeedOrganizationID: {angels, dodgers, braves, mariners},
		},
		Links: links,
	}
}
