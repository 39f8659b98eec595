package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/infrastructure/repository/memory"
	"github.com/slabtrack/cardstock/internal/platform/cache"
	"github.com/slabtrack/cardstock/internal/platform/id"
	"github.com/slabtrack/cardstock/internal/usecase"
)

const testJobToken = "test-job-token"

type stubCatalog struct {
	mu      sync.Mutex
	players []player.Player
	teams   []team.Team
	linkSeq int
}

func (s *stubCatalog) SearchPlayers(_ context.Context, _ string) ([]player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]player.Player(nil), s.players...), nil
}

func (s *stubCatalog) SearchTeams(_ context.Context, _ string) ([]team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]team.Team(nil), s.teams...), nil
}

func (s *stubCatalog) CreatePlayer(_ context.Context, firstName, lastName string) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := player.Player{
		ID:        int64(9000 + len(s.players)),
		Name:      player.FullName(firstName, lastName),
		FirstName: firstName,
		LastName:  lastName,
	}
	s.players = append(s.players, created)
	return created, nil
}

func (s *stubCatalog) CreateTeam(_ context.Context, name, organizationID string) (team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := team.Team{
		ID:             int64(900 + len(s.teams)),
		OrganizationID: organizationID,
		Name:           name,
	}
	s.teams = append(s.teams, created)
	return created, nil
}

func (s *stubCatalog) CreateOrFetchPlayerTeamLink(_ context.Context, playerID, teamID int64) (playerteam.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkSeq++
	return playerteam.Link{
		ID:       fmt.Sprintf("pt_test_%d", s.linkSeq),
		PlayerID: playerID,
		TeamID:   teamID,
	}, nil
}

type stubPublisher struct{}

func (stubPublisher) PublishImportCommitted(_ context.Context, _ usecase.ImportCommittedEvent) error {
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	seed := memory.DefaultSeed()
	catalog := &stubCatalog{
		players: seed.PlayersByCatalog[memory.SeedCatalogID],
		teams:   seed.TeamsByOrganization[memory.SeedOrganizationID],
	}

	cardRepo := memory.NewCardRepository(nil)
	importService := usecase.NewImportService(catalog, cardRepo, stubPublisher{}, id.NewRandomGenerator(), slog.Default())
	directoryService := usecase.NewDirectoryService(
		memory.NewPlayerRepository(seed.PlayersByCatalog),
		memory.NewTeamRepository(seed.TeamsByOrganization),
		memory.NewPlayerTeamRepository(seed.Links),
		cardRepo,
		cache.NewStore(time.Minute),
		slog.Default(),
	)

	handler := NewHandler(importService, directoryService, slog.Default())
	return NewRouter(handler, slog.Default(), false, []string{"*"}, testJobToken)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return rec, envelope
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()

	body := fmt.Sprintf(`{
		"organizationId": %q,
		"catalogId": %q,
		"rows": [
			{"cardNumber": "27", "players": [{"name": "Mike Trout", "teamNames": ["Angels"]}]}
		]
	}`, memory.SeedOrganizationID, memory.SeedCatalogID)

	rec, envelope := doJSON(t, router, http.MethodPost, "/v1/import/sessions", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", envelope)
	}
	sessionID, _ := data["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("expected session id in response, got %v", data)
	}
	return sessionID
}

func TestCreateImportSessionSeedsMatches(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createSession(t, router)

	rec, envelope := doJSON(t, router, http.MethodGet, "/v1/import/sessions/"+sessionID+"/rows", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rows, ok := envelope["data"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected one row, got %v", envelope["data"])
	}

	row := rows[0].(map[string]any)
	mentions := row["players"].([]any)
	mention := mentions[0].(map[string]any)
	matches := mention["matches"].(map[string]any)
	exact := matches["exact"].([]any)
	if len(exact) != 1 {
		t.Fatalf("expected one exact player match, got %v", matches)
	}
	candidate := exact[0].(map[string]any)
	if candidate["name"] != "Mike Trout" {
		t.Fatalf("unexpected exact match: %v", candidate)
	}
}

func TestSelectPlayerResolvesRow(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createSession(t, router)

	body := `{"mentionIndex": 0, "playerId": 101}`
	rec, envelope := doJSON(t, router, http.MethodPost, "/v1/import/sessions/"+sessionID+"/rows/1/select-player", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	data := envelope["data"].(map[string]any)
	row := data["row"].(map[string]any)
	readiness := row["readiness"].(map[string]any)
	if ready, _ := readiness["ready"].(bool); !ready {
		t.Fatalf("expected row to be ready after selecting seeded player, got %v", readiness)
	}
}

func TestCreateImportSessionRejectsPasteAndRows(t *testing.T) {
	router := newTestRouter(t)

	body := fmt.Sprintf(`{
		"organizationId": %q,
		"catalogId": %q,
		"paste": "27\tMike Trout (Angels)",
		"rows": [{"cardNumber": "27"}]
	}`, memory.SeedOrganizationID, memory.SeedCatalogID)

	rec, _ := doJSON(t, router, http.MethodPost, "/v1/import/sessions", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCommitRequiresInternalJobToken(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createSession(t, router)

	rec, _ := doJSON(t, router, http.MethodPost, "/v1/import/sessions/"+sessionID+"/commit", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}
}

func TestCommitFlowPersistsCards(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createSession(t, router)

	selectBody := `{"mentionIndex": 0, "playerId": 101}`
	rec, _ := doJSON(t, router, http.MethodPost, "/v1/import/sessions/"+sessionID+"/rows/1/select-player", selectBody, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("select player failed with status %d", rec.Code)
	}

	headers := map[string]string{"X-Internal-Job-Token": testJobToken}
	rec, envelope := doJSON(t, router, http.MethodPost, "/v1/import/sessions/"+sessionID+"/commit", "", headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	data := envelope["data"].(map[string]any)
	if count, _ := data["card_count"].(float64); int(count) != 1 {
		t.Fatalf("expected one committed card, got %v", data)
	}

	rec, envelope = doJSON(t, router, http.MethodGet, "/v1/cards?search=27", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 listing cards, got %d", rec.Code)
	}
	cards, ok := envelope["data"].([]any)
	if !ok || len(cards) != 1 {
		t.Fatalf("expected one card in listing, got %v", envelope["data"])
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/v1/import/sessions/"+sessionID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected committed session to be closed, got status %d", rec.Code)
	}
}

func TestGetRowRejectsBadSortOrder(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createSession(t, router)

	rec, _ := doJSON(t, router, http.MethodGet, "/v1/import/sessions/"+sessionID+"/rows/zero", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestListOrganizationTeamsReturnsSeed(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodGet, "/v1/organizations/"+memory.SeedOrganizationID+"/teams", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	teams, ok := envelope["data"].([]any)
	if !ok || len(teams) != 4 {
		t.Fatalf("expected four seeded teams, got %v", envelope["data"])
	}
}
