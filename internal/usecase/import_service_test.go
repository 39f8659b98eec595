package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/platform/id"
)

type fakeCatalog struct {
	mu sync.Mutex

	players []player.Player
	teams   []team.Team

	linkCalls map[string]int
	linkErrs  map[string]error
	linkSeq   int
	playerSeq int64
	teamSeq   int64
}

func newFakeCatalog(players []player.Player, teams []team.Team) *fakeCatalog {
	return &fakeCatalog{
		players:   players,
		teams:     teams,
		linkCalls: make(map[string]int),
		linkErrs:  make(map[string]error),
		playerSeq: 1000,
		teamSeq:   1000,
	}
}

func pairKey(playerID, teamID int64) string {
	return fmt.Sprintf("%d_%d", playerID, teamID)
}

func (f *fakeCatalog) SearchPlayers(_ context.Context, _ string) ([]player.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]player.Player(nil), f.players...), nil
}

func (f *fakeCatalog) SearchTeams(_ context.Context, _ string) ([]team.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]team.Team(nil), f.teams...), nil
}

func (f *fakeCatalog) CreatePlayer(_ context.Context, firstName, lastName string) (player.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.playerSeq++
	created := player.Player{
		ID:        f.playerSeq,
		Name:      player.FullName(firstName, lastName),
		FirstName: firstName,
		LastName:  lastName,
	}
	f.players = append(f.players, created)
	return created, nil
}

func (f *fakeCatalog) CreateTeam(_ context.Context, name, organizationID string) (team.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.teamSeq++
	created := team.Team{
		ID:             f.teamSeq,
		OrganizationID: organizationID,
		Name:           name,
	}
	f.teams = append(f.teams, created)
	return created, nil
}

func (f *fakeCatalog) CreateOrFetchPlayerTeamLink(_ context.Context, playerID, teamID int64) (playerteam.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := pairKey(playerID, teamID)
	f.linkCalls[key]++
	if err, ok := f.linkErrs[key]; ok {
		return playerteam.Link{}, err
	}

	f.linkSeq++
	return playerteam.Link{
		ID:       fmt.Sprintf("pt_%d", f.linkSeq),
		PlayerID: playerID,
		TeamID:   teamID,
	}, nil
}

func (f *fakeCatalog) callsFor(playerID, teamID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.linkCalls[pairKey(playerID, teamID)]
}

type fakeCardRepo struct {
	mu       sync.Mutex
	inserted []card.Card
	err      error
}

func (f *fakeCardRepo) InsertBatch(_ context.Context, cards []card.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, cards...)
	return nil
}

func (f *fakeCardRepo) List(_ context.Context, _ card.ListFilter) ([]card.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]card.Card(nil), f.inserted...), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ImportCommittedEvent
	err    error
}

func (f *fakePublisher) PublishImportCommitted(_ context.Context, event ImportCommittedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestImportService(catalog *fakeCatalog) (*ImportService, *fakeCardRepo, *fakePublisher) {
	cards := &fakeCardRepo{}
	publisher := &fakePublisher{}
	svc := NewImportService(catalog, cards, publisher, id.NewRandomGenerator(), slog.Default())
	return svc, cards, publisher
}

func makeRow(sortOrder int, number, playerName string, teamNames ...string) card.ParsedRow {
	row := card.NewParsedRow(sortOrder, number)
	row.TeamNames = append([]string{}, teamNames...)
	if playerName != "" {
		row.Players = append(row.Players, card.NewPlayerMention(playerName, nil))
	}
	return row
}

func mustCreateSession(t *testing.T, svc *ImportService, rows []card.ParsedRow) string {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), CreateImportInput{
		OrganizationID: "org-1",
		CatalogID:      "catalog-1",
		Rows:           rows,
	})
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	return info.SessionID
}

func TestCreateSessionDerivesMatches(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{
			{ID: 1, Name: "Shohei Ohtani"},
			{ID: 2, Name: "Mike Trout"},
		},
		[]team.Team{
			{ID: 10, Name: "Los Angeles Angels", OrganizationID: "org-1"},
		},
	)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "27", "Shohei Ohtani", "Angels"),
		makeRow(2, "28", "Shohey Ohtani", "Angels"),
	})

	rows, err := svc.Rows(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}

	exact := rows[0].Players[0].Matches.Exact
	if len(exact) != 1 || exact[0].ID != 1 {
		t.Fatalf("expected one exact player match with id=1, got %+v", exact)
	}
	if len(rows[0].TeamMatches.Exact) != 1 || rows[0].TeamMatches.Exact[0].ID != 10 {
		t.Fatalf("expected card-level exact team match, got %+v", rows[0].TeamMatches.Exact)
	}
	if len(rows[0].Players[0].CheckTeams.Exact) != 1 {
		t.Fatalf("expected check teams to fall back to card-level exact set, got %+v", rows[0].Players[0].CheckTeams.Exact)
	}

	// The misspelled second row should only land in the fuzzy bucket.
	if len(rows[1].Players[0].Matches.Exact) != 0 {
		t.Fatalf("expected no exact match for misspelled mention, got %+v", rows[1].Players[0].Matches.Exact)
	}
	fuzzyHit := false
	for _, candidate := range rows[1].Players[0].Matches.Fuzzy {
		if candidate.ID == 1 {
			fuzzyHit = true
		}
	}
	if !fuzzyHit {
		t.Fatalf("expected fuzzy match for misspelled mention, got %+v", rows[1].Players[0].Matches.Fuzzy)
	}
}

func TestCreateSessionNormalizesLiteralMentions(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{{ID: 1, Name: "Mike Trout"}},
		[]team.Team{{ID: 10, Name: "Los Angeles Angels", OrganizationID: "org-1"}},
	)
	svc, _, _ := newTestImportService(catalog)

	// A mention built by struct literal skips NewPlayerMention, leaving
	// SelectedTeams nil while TeamNames is populated. The session must
	// restore the parallel-array invariant before any team resolution.
	row := card.NewParsedRow(1, "27")
	row.Players = append(row.Players, card.PlayerMention{
		Name:      "Mike Trout",
		TeamNames: []string{"Angels"},
	})
	sessionID := mustCreateSession(t, svc, []card.ParsedRow{row})

	if _, err := svc.SelectTeam(context.Background(), sessionID, 1, 0, 0, 10); err != nil {
		t.Fatalf("SelectTeam returned error: %v", err)
	}

	rows, err := svc.Rows(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	mention := rows[0].Players[0]
	if len(mention.SelectedTeams) != 1 || mention.SelectedTeams[0] == nil {
		t.Fatalf("expected the selection to land, got %+v", mention.SelectedTeams)
	}
	if mention.SelectedTeams[0].ID != 10 {
		t.Fatalf("expected team 10 selected, got id %d", mention.SelectedTeams[0].ID)
	}
}

func TestCreateSessionRejectsDuplicateSortOrder(t *testing.T) {
	catalog := newFakeCatalog(nil, nil)
	svc, _, _ := newTestImportService(catalog)

	_, err := svc.CreateSession(context.Background(), CreateImportInput{
		OrganizationID: "org-1",
		CatalogID:      "catalog-1",
		Rows: []card.ParsedRow{
			makeRow(1, "1", "A Player"),
			makeRow(1, "2", "B Player"),
		},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSelectPlayerBroadcastsAndLinksOnce(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{{ID: 5, Name: "Mike Trout"}},
		[]team.Team{{ID: 9, Name: "Los Angeles Angels", OrganizationID: "org-1"}},
	)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Mike Trout", "Angels"),
		makeRow(2, "2", "Mike Trout", "Angels"),
		makeRow(3, "3", "mike trout", "Angels"),
	})

	result, err := svc.SelectPlayer(context.Background(), sessionID, 1, 0, 5)
	if err != nil {
		t.Fatalf("SelectPlayer returned error: %v", err)
	}
	if result.PropagatedMentions != 2 {
		t.Fatalf("expected 2 propagated mentions, got %d", result.PropagatedMentions)
	}
	if result.LinksCreated != 1 {
		t.Fatalf("expected 1 created link, got %d", result.LinksCreated)
	}
	if got := catalog.callsFor(5, 9); got != 1 {
		t.Fatalf("expected exactly one remote link call for the pair, got %d", got)
	}

	rows, err := svc.Rows(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	for _, row := range rows {
		mention := row.Players[0]
		if mention.SelectedPlayer == nil || mention.SelectedPlayer.ID != 5 {
			t.Fatalf("row %d: expected selected player 5, got %+v", row.SortOrder, mention.SelectedPlayer)
		}
		if !mention.HasLink(5, 9) {
			t.Fatalf("row %d: expected confirmed link for pair (5, 9)", row.SortOrder)
		}
	}

	summary, err := svc.Summary(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary.ReadyCount != 3 || summary.NeedsWorkCount != 0 {
		t.Fatalf("expected all rows ready, got %+v", summary)
	}
}

func TestBroadcastNeverOverwritesExistingSelection(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{
			{ID: 5, Name: "Chris Davis"},
			{ID: 6, Name: "Khris Davis"},
		},
		[]team.Team{{ID: 9, Name: "Oakland Athletics", OrganizationID: "org-1"}},
	)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Chris Davis", "Athletics"),
		makeRow(2, "2", "Chris Davis", "Athletics"),
	})

	// Row 2 is resolved to a different player first.
	if _, err := svc.SelectPlayer(context.Background(), sessionID, 2, 0, 6); err != nil {
		t.Fatalf("SelectPlayer row 2 returned error: %v", err)
	}
	result, err := svc.SelectPlayer(context.Background(), sessionID, 1, 0, 5)
	if err != nil {
		t.Fatalf("SelectPlayer row 1 returned error: %v", err)
	}
	if result.PropagatedMentions != 0 {
		t.Fatalf("expected no propagation over an existing selection, got %d", result.PropagatedMentions)
	}

	row2, err := svc.Row(context.Background(), sessionID, 2)
	if err != nil {
		t.Fatalf("Row returned error: %v", err)
	}
	if row2.Players[0].SelectedPlayer.ID != 6 {
		t.Fatalf("row 2 selection was overwritten: got player %d", row2.Players[0].SelectedPlayer.ID)
	}
}

func TestSelectPlayerRecoversAlreadyExistingLink(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{{ID: 5, Name: "Mike Trout"}},
		[]team.Team{{ID: 9, Name: "Los Angeles Angels", OrganizationID: "org-1"}},
	)
	catalog.linkErrs[pairKey(5, 9)] = fmt.Errorf("%w: association exists remotely", ErrAlreadyExists)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Mike Trout", "Angels"),
	})

	result, err := svc.SelectPlayer(context.Background(), sessionID, 1, 0, 5)
	if err != nil {
		t.Fatalf("SelectPlayer returned error: %v", err)
	}
	if result.LinksCreated != 0 || result.LinksConfirmed != 1 {
		t.Fatalf("expected the duplicate to count as confirmed, got %+v", result)
	}

	row, err := svc.Row(context.Background(), sessionID, 1)
	if err != nil {
		t.Fatalf("Row returned error: %v", err)
	}
	links := row.Players[0].SelectedLinks
	if len(links) != 1 || links[0].ID != "existing_5_9" {
		t.Fatalf("expected synthesized placeholder link existing_5_9, got %+v", links)
	}
	if verdict := EvaluateRow(row); !verdict.Ready {
		t.Fatalf("expected row to be ready with placeholder link, got %+v", verdict)
	}
}

func TestSelectPlayerPartialLinkFailure(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{{ID: 5, Name: "Bo Jackson"}},
		[]team.Team{
			{ID: 9, Name: "Kansas City Royals", OrganizationID: "org-1"},
			{ID: 11, Name: "Los Angeles Raiders", OrganizationID: "org-1"},
		},
	)
	catalog.linkErrs[pairKey(5, 11)] = fmt.Errorf("%w: catalog is down", ErrDependencyUnavailable)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Bo Jackson", "Royals", "Raiders"),
	})

	result, err := svc.SelectPlayer(context.Background(), sessionID, 1, 0, 5)
	if err != nil {
		t.Fatalf("SelectPlayer returned error: %v", err)
	}
	if result.LinksCreated != 1 {
		t.Fatalf("expected the healthy pair to commit, got %+v", result)
	}
	if len(result.LinkFailures) != 1 || result.LinkFailures[0].TeamID != 11 {
		t.Fatalf("expected one failure for team 11, got %+v", result.LinkFailures)
	}

	row, err := svc.Row(context.Background(), sessionID, 1)
	if err != nil {
		t.Fatalf("Row returned error: %v", err)
	}
	if !row.Players[0].HasLink(5, 9) {
		t.Fatalf("expected confirmed link for the healthy pair")
	}
	verdict := EvaluateRow(row)
	if verdict.Ready {
		t.Fatalf("expected row to stay not ready after a link failure")
	}
	if len(verdict.Reasons) != 1 || verdict.Reasons[0] != ReasonMissingLink {
		t.Fatalf("expected MISSING_LINK, got %+v", verdict.Reasons)
	}
}

func TestCreatePlayerBroadcastsWithoutLinkFanout(t *testing.T) {
	catalog := newFakeCatalog(
		nil,
		[]team.Team{{ID: 9, Name: "Los Angeles Angels", OrganizationID: "org-1"}},
	)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Zach Neto", "Angels"),
		makeRow(2, "2", "Zach Neto", "Angels"),
	})

	result, err := svc.CreatePlayer(context.Background(), sessionID, 1, 0)
	if err != nil {
		t.Fatalf("CreatePlayer returned error: %v", err)
	}
	if result.PropagatedMentions != 1 {
		t.Fatalf("expected the second row to pick up the new player, got %d", result.PropagatedMentions)
	}
	if result.LinksCreated != 0 || len(catalog.linkCalls) != 0 {
		t.Fatalf("expected no link work during player creation, got %+v calls=%v", result, catalog.linkCalls)
	}

	rows, err := svc.Rows(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	for _, row := range rows {
		if row.Players[0].SelectedPlayer == nil {
			t.Fatalf("row %d: expected new player selected", row.SortOrder)
		}
		verdict := EvaluateRow(row)
		if verdict.Ready {
			t.Fatalf("row %d: expected MISSING_LINK until the association is confirmed", row.SortOrder)
		}
	}
}

func TestCreateTeamResolvesAndLinks(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{{ID: 5, Name: "Julio Rodriguez"}},
		nil,
	)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Julio Rodriguez", "Mariners"),
		makeRow(2, "2", "", "Mariners"),
	})

	if _, err := svc.SelectPlayer(context.Background(), sessionID, 1, 0, 5); err != nil {
		t.Fatalf("SelectPlayer returned error: %v", err)
	}

	result, err := svc.CreateTeam(context.Background(), sessionID, 1, "Mariners")
	if err != nil {
		t.Fatalf("CreateTeam returned error: %v", err)
	}
	if result.LinksCreated != 1 {
		t.Fatalf("expected one link for the already-selected player, got %+v", result)
	}
	if result.PropagatedMentions == 0 {
		t.Fatalf("expected team resolution to propagate")
	}

	rows, err := svc.Rows(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	for _, row := range rows {
		if len(row.TeamMatches.Exact) != 1 {
			t.Fatalf("row %d: expected one exact team, got %+v", row.SortOrder, row.TeamMatches.Exact)
		}
	}
	if verdict := EvaluateRow(rows[0]); !verdict.Ready {
		t.Fatalf("expected row 1 ready after team creation, got %+v", verdict)
	}
}

func TestCommitRequiresAllRowsReady(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{{ID: 5, Name: "Mike Trout"}},
		[]team.Team{{ID: 9, Name: "Los Angeles Angels", OrganizationID: "org-1"}},
	)
	svc, cards, publisher := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Mike Trout", "Angels"),
		makeRow(2, "2", "Shohei Ohtani", "Angels"),
	})

	if _, err := svc.SelectPlayer(context.Background(), sessionID, 1, 0, 5); err != nil {
		t.Fatalf("SelectPlayer returned error: %v", err)
	}
	if _, err := svc.Commit(context.Background(), sessionID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected commit rejection while rows need work, got %v", err)
	}
	if len(cards.inserted) != 0 || len(publisher.events) != 0 {
		t.Fatalf("expected no writes on rejected commit")
	}
}

func TestCommitPersistsCardsAndPublishes(t *testing.T) {
	catalog := newFakeCatalog(
		[]player.Player{{ID: 5, Name: "Mike Trout"}},
		[]team.Team{{ID: 9, Name: "Los Angeles Angels", OrganizationID: "org-1"}},
	)
	svc, cards, publisher := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Mike Trout", "Angels"),
	})
	if _, err := svc.SelectPlayer(context.Background(), sessionID, 1, 0, 5); err != nil {
		t.Fatalf("SelectPlayer returned error: %v", err)
	}

	result, err := svc.Commit(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if result.CardCount != 1 || len(cards.inserted) != 1 {
		t.Fatalf("expected one committed card, got %+v", result)
	}

	committed := cards.inserted[0]
	if committed.Number != "1" {
		t.Fatalf("expected card number 1, got %q", committed.Number)
	}
	if len(committed.PlayerIDs) != 1 || committed.PlayerIDs[0] != 5 {
		t.Fatalf("expected player id 5, got %+v", committed.PlayerIDs)
	}
	if len(committed.TeamIDs) != 1 || committed.TeamIDs[0] != 9 {
		t.Fatalf("expected team id 9, got %+v", committed.TeamIDs)
	}
	if len(committed.PlayerTeamIDs) != 1 {
		t.Fatalf("expected one link id, got %+v", committed.PlayerTeamIDs)
	}

	if len(publisher.events) != 1 || publisher.events[0].CardCount != 1 {
		t.Fatalf("expected one committed event, got %+v", publisher.events)
	}

	// The session is gone after commit.
	if _, err := svc.Rows(context.Background(), sessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after commit, got %v", err)
	}
}

func TestSortedByCardNumberNumericThenLexicographic(t *testing.T) {
	catalog := newFakeCatalog(nil, nil)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "10", "A Player"),
		makeRow(2, "2", "B Player"),
		makeRow(3, "RC-10", "C Player"),
		makeRow(4, "RC-2", "D Player"),
		makeRow(5, "1", "E Player"),
	})

	rows, err := svc.SortedByCardNumber(context.Background(), sessionID, false)
	if err != nil {
		t.Fatalf("SortedByCardNumber returned error: %v", err)
	}

	// Pure integers sort numerically; alphanumeric values fall back to
	// plain string order, so "RC-10" comes before "RC-2".
	want := []string{"1", "2", "10", "RC-10", "RC-2"}
	for i, number := range want {
		if rows[i].CardNumber != number {
			t.Fatalf("position %d: expected %q, got %q", i, number, rows[i].CardNumber)
		}
	}
}

func TestSearchFiltersByFoldedSubstring(t *testing.T) {
	catalog := newFakeCatalog(nil, nil)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "Ronald Acuña Jr.", "Braves"),
		makeRow(2, "2", "Mookie Betts", "Dodgers"),
	})

	rows, err := svc.Search(context.Background(), sessionID, "acuna")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].SortOrder != 1 {
		t.Fatalf("expected only the Acuña row, got %+v", rows)
	}

	rows, err = svc.Search(context.Background(), sessionID, "")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected blank query to return everything, got %d rows", len(rows))
	}
}

func TestToggleFlagFlips(t *testing.T) {
	catalog := newFakeCatalog(nil, nil)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{makeRow(1, "1", "A Player")})

	row, err := svc.ToggleFlag(context.Background(), sessionID, 1, card.FlagRookie)
	if err != nil {
		t.Fatalf("ToggleFlag returned error: %v", err)
	}
	if !row.Rookie {
		t.Fatalf("expected rookie flag on after first toggle")
	}
	row, err = svc.ToggleFlag(context.Background(), sessionID, 1, card.FlagRookie)
	if err != nil {
		t.Fatalf("ToggleFlag returned error: %v", err)
	}
	if row.Rookie {
		t.Fatalf("expected rookie flag off after second toggle")
	}

	if _, err := svc.ToggleFlag(context.Background(), sessionID, 1, card.Flag("nope")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown flag, got %v", err)
	}
}

func TestBulkSetFieldIsAtomic(t *testing.T) {
	catalog := newFakeCatalog(nil, nil)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{
		makeRow(1, "1", "A Player"),
		makeRow(2, "2", "B Player"),
	})

	count, err := svc.BulkSetField(context.Background(), sessionID, []int{1, 2}, card.FieldPrintRun, "99")
	if err != nil {
		t.Fatalf("BulkSetField returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows updated, got %d", count)
	}

	// One unknown sort order fails the whole batch.
	if _, err := svc.BulkSetField(context.Background(), sessionID, []int{1, 404}, card.FieldNotes, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown row, got %v", err)
	}
	row, err := svc.Row(context.Background(), sessionID, 1)
	if err != nil {
		t.Fatalf("Row returned error: %v", err)
	}
	if row.Notes != "" {
		t.Fatalf("expected failed batch to leave rows untouched, got notes %q", row.Notes)
	}
	if row.PrintRun == nil || *row.PrintRun != 99 {
		t.Fatalf("expected earlier print run 99 to survive, got %+v", row.PrintRun)
	}
}

func TestCloseSessionDiscardsState(t *testing.T) {
	catalog := newFakeCatalog(nil, nil)
	svc, _, _ := newTestImportService(catalog)

	sessionID := mustCreateSession(t, svc, []card.ParsedRow{makeRow(1, "1", "A Player")})
	if err := svc.CloseSession(context.Background(), sessionID); err != nil {
		t.Fatalf("CloseSession returned error: %v", err)
	}
	if err := svc.CloseSession(context.Background(), sessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second close, got %v", err)
	}
}
