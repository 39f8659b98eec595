// Package cardcatalog is the JSON-over-HTTP client for the remote catalog
// service that owns players, teams and player-team associations. It
// implements usecase.CatalogProvider and maps the catalog's HTTP statuses to
// the usecase sentinel errors, so the import engine never sees transport
// detail.
package cardcatalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/platform/logging"
	"github.com/slabtrack/cardstock/internal/platform/resilience"
	"github.com/slabtrack/cardstock/internal/usecase"
)

const defaultBaseURL = "https://catalog.slabtrack.internal/v1"

var bearerTokenRegex = regexp.MustCompile(`Bearer\s+\S+`)
var errCatalogTransient = crerr.New("card catalog transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type playerPayload struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Teams     []teamRefPayload `json:"teams"`
}

type teamRefPayload struct {
	TeamID       int64  `json:"team_id"`
	PlayerTeamID string `json:"player_team_id"`
	TeamName     string `json:"team_name"`
}

type teamPayload struct {
	ID             int64  `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Abbreviation   string `json:"abbreviation"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

type linkPayload struct {
	ID         string `json:"id"`
	PlayerID   int64  `json:"player_id"`
	TeamID     int64  `json:"team_id"`
	PlayerName string `json:"player_name"`
	TeamName   string `json:"team_name"`
}

type playersEnvelope struct {
	Data []playerPayload `json:"data"`
}

type playerEnvelope struct {
	Data playerPayload `json:"data"`
}

type teamsEnvelope struct {
	Data []teamPayload `json:"data"`
}

type teamEnvelope struct {
	Data teamPayload `json:"data"`
}

type linkEnvelope struct {
	Data linkPayload `json:"data"`
}

// SearchPlayers lists every player in one catalog, with embedded team
// associations. Concurrent identical reads collapse into one request.
func (c *Client) SearchPlayers(ctx context.Context, catalogID string) ([]player.Player, error) {
	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return nil, fmt.Errorf("%w: catalog id is required", usecase.ErrInvalidInput)
	}

	var envelope playersEnvelope
	if err := c.getJSON(ctx, "/players", map[string]string{"catalog_id": catalogID}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch catalog players catalog=%s: %w", catalogID, err)
	}

	out := make([]player.Player, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		out = append(out, mapPlayer(item))
	}
	return out, nil
}

// SearchTeams lists every team under one organization.
func (c *Client) SearchTeams(ctx context.Context, organizationID string) ([]team.Team, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, fmt.Errorf("%w: organization id is required", usecase.ErrInvalidInput)
	}

	var envelope teamsEnvelope
	if err := c.getJSON(ctx, "/teams", map[string]string{"organization_id": organizationID}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch catalog teams organization=%s: %w", organizationID, err)
	}

	out := make([]team.Team, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		out = append(out, mapTeam(item))
	}
	return out, nil
}

func (c *Client) CreatePlayer(ctx context.Context, firstName, lastName string) (player.Player, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return player.Player{}, fmt.Errorf("%w: first name is required", usecase.ErrInvalidInput)
	}

	body := map[string]string{
		"first_name": firstName,
		"last_name":  strings.TrimSpace(lastName),
	}
	var envelope playerEnvelope
	if err := c.postJSON(ctx, "/players", body, &envelope); err != nil {
		return player.Player{}, fmt.Errorf("create catalog player: %w", err)
	}
	return mapPlayer(envelope.Data), nil
}

func (c *Client) CreateTeam(ctx context.Context, name, organizationID string) (team.Team, error) {
	name = strings.TrimSpace(name)
	organizationID = strings.TrimSpace(organizationID)
	if name == "" || organizationID == "" {
		return team.Team{}, fmt.Errorf("%w: team name and organization id are required", usecase.ErrInvalidInput)
	}

	body := map[string]string{
		"name":            name,
		"organization_id": organizationID,
	}
	var envelope teamEnvelope
	if err := c.postJSON(ctx, "/teams", body, &envelope); err != nil {
		return team.Team{}, fmt.Errorf("create catalog team: %w", err)
	}
	return mapTeam(envelope.Data), nil
}

// CreateOrFetchPlayerTeamLink confirms one association. The catalog answers
// 409 when the pair already exists; that surfaces as ErrAlreadyExists so the
// caller can synthesize a local placeholder instead of failing.
func (c *Client) CreateOrFetchPlayerTeamLink(ctx context.Context, playerID, teamID int64) (playerteam.Link, error) {
	if playerID <= 0 || teamID <= 0 {
		return playerteam.Link{}, fmt.Errorf("%w: player id and team id are required", usecase.ErrInvalidInput)
	}

	body := map[string]int64{
		"player_id": playerID,
		"team_id":   teamID,
	}
	var envelope linkEnvelope
	if err := c.postJSON(ctx, "/player-teams", body, &envelope); err != nil {
		return playerteam.Link{}, fmt.Errorf("create player-team link player=%d team=%d: %w", playerID, teamID, err)
	}
	return mapLink(envelope.Data), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, target any) error {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// Identical concurrent reads share one in-flight request.
	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		return c.execute(ctx, http.MethodGet, fullURL, nil)
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode catalog payload: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, target any) error {
	encoded, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode catalog request: %w", err)
	}

	raw, err := c.execute(ctx, http.MethodPost, c.baseURL+path, encoded)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode catalog payload: %w", err)
	}
	return nil
}

// execute runs one catalog request through the circuit breaker with
// bounded retries on transient failures. Non-retryable statuses return
// immediately, already wrapped in their usecase sentinel.
func (c *Client) execute(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "card catalog circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: card catalog is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeWithRetries(ctx, method, fullURL, body)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errCatalogTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil && crerr.Is(err, errCatalogTransient) {
		// Retries are exhausted; hide the transient marker behind the
		// dependency sentinel the use cases act on.
		return nil, fmt.Errorf("%w: %s", usecase.ErrDependencyUnavailable, sanitizeSensitiveText(err.Error(), c.token))
	}
	return raw, err
}

func (c *Client) executeWithRetries(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if body != nil {
			req.Header.Set("content-type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errCatalogTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errCatalogTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: catalog status=%d body=%s", errCatalogTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, statusError(resp.StatusCode, raw)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: catalog request failed", errCatalogTransient)
	}
	c.logger.WarnContext(ctx, "card catalog request failed", "method", method, "url", fullURL, "error", sanitizeSensitiveText(lastErr.Error(), c.token))
	return nil, lastErr
}

// statusError maps non-retryable catalog statuses onto the usecase
// sentinels.
func statusError(status int, body []byte) error {
	detail := abbreviateBody(body)
	switch status {
	case http.StatusConflict:
		return fmt.Errorf("%w: catalog status=%d body=%s", usecase.ErrAlreadyExists, status, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: catalog status=%d body=%s", usecase.ErrNotFound, status, detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: catalog status=%d", usecase.ErrUnauthorized, status)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: catalog status=%d body=%s", usecase.ErrInvalidInput, status, detail)
	default:
		return fmt.Errorf("catalog status=%d body=%s", status, detail)
	}
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 256 {
		return body[:256] + "..."
	}
	return body
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return bearerTokenRegex.ReplaceAllString(value, "Bearer REDACTED")
}

func mapPlayer(item playerPayload) player.Player {
	teams := make([]player.TeamRef, 0, len(item.Teams))
	for _, ref := range item.Teams {
		teams = append(teams, player.TeamRef{
			TeamID:       ref.TeamID,
			PlayerTeamID: strings.TrimSpace(ref.PlayerTeamID),
			TeamName:     strings.TrimSpace(ref.TeamName),
		})
	}

	name := strings.TrimSpace(item.Name)
	if name == "" {
		name = player.FullName(item.FirstName, item.LastName)
	}
	return player.Player{
		ID:        item.ID,
		Name:      name,
		FirstName: strings.TrimSpace(item.FirstName),
		LastName:  strings.TrimSpace(item.LastName),
		Teams:     teams,
	}
}

func mapTeam(item teamPayload) team.Team {
	return team.Team{
		ID:             item.ID,
		OrganizationID: strings.TrimSpace(item.OrganizationID),
		Name:           strings.TrimSpace(item.Name),
		Abbreviation:   strings.TrimSpace(item.Abbreviation),
		PrimaryColor:   strings.TrimSpace(item.PrimaryColor),
		SecondaryColor: strings.TrimSpace(item.SecondaryColor),
	}
}

func mapLink(item linkPayload) playerteam.Link {
	return playerteam.Link{
		ID:         strings.TrimSpace(item.ID),
		PlayerID:   item.PlayerID,
		TeamID:     item.TeamID,
		PlayerName: strings.TrimSpace(item.PlayerName),
		TeamName:   strings.TrimSpace(item.TeamName),
	}
}
