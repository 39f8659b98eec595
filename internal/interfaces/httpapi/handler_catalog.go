package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/usecase"
)

func (h *Handler) ListCatalogPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCatalogPlayers")
	defer span.End()

	catalogID := r.PathValue("catalogID")
	players, err := h.directoryService.Players(ctx, catalogID)
	if err != nil {
		h.logger.WarnContext(ctx, "list catalog players failed", "catalog_id", catalogID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListOrganizationTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOrganizationTeams")
	defer span.End()

	organizationID := r.PathValue("organizationID")
	teams, err := h.directoryService.Teams(ctx, organizationID)
	if err != nil {
		h.logger.WarnContext(ctx, "list organization teams failed", "organization_id", organizationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListPlayerTeamLinks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayerTeamLinks")
	defer span.End()

	playerIDs, err := parsePlayerIDs(r.URL.Query().Get("player_ids"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	links, err := h.directoryService.Links(ctx, playerIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "list player team links failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, linksToDTO(links))
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCards")
	defer span.End()

	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	cards, err := h.directoryService.Cards(ctx, card.ListFilter{
		Search: strings.TrimSpace(query.Get("search")),
		Limit:  limit,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list cards failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]cardDTO, 0, len(cards))
	for _, c := range cards {
		items = append(items, cardToDTO(c))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func parsePlayerIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: player_ids query parameter is required", usecase.ErrInvalidInput)
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: player_ids must be positive integers", usecase.ErrInvalidInput)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
