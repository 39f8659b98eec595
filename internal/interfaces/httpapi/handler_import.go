package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/slabtrack/cardstock/internal/checklist"
	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/usecase"
)

type createImportSessionRequest struct {
	OrganizationID string           `json:"organizationId" validate:"required"`
	CatalogID      string           `json:"catalogId" validate:"required"`
	Paste          string           `json:"paste"`
	Rows           []importRowInput `json:"rows" validate:"dive"`
	MaxWorkers     int              `json:"maxWorkers" validate:"gte=0"`
}

type importRowInput struct {
	CardNumber string               `json:"cardNumber" validate:"required"`
	Players    []importMentionInput `json:"players" validate:"dive"`
	TeamNames  []string             `json:"teamNames"`
	Rookie     bool                 `json:"rookie"`
	Autograph  bool                 `json:"autograph"`
	Relic      bool                 `json:"relic"`
	ShortPrint bool                 `json:"shortPrint"`
	PrintRun   *int                 `json:"printRun"`
	ColorID    *int                 `json:"colorId"`
	Notes      string               `json:"notes"`
}

type importMentionInput struct {
	Name      string   `json:"name" validate:"required"`
	TeamNames []string `json:"teamNames"`
}

func (h *Handler) CreateImportSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateImportSession")
	defer span.End()

	var req createImportSessionRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	paste := strings.TrimSpace(req.Paste)
	if paste != "" && len(req.Rows) > 0 {
		writeError(ctx, w, fmt.Errorf("%w: provide either paste text or structured rows, not both", usecase.ErrInvalidInput))
		return
	}

	var rows []card.ParsedRow
	if paste != "" {
		parsed, err := checklist.Parse(paste)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: parse checklist paste: %v", usecase.ErrInvalidInput, err))
			return
		}
		rows = parsed
	} else {
		rows = rowsFromInputs(req.Rows)
	}

	info, err := h.importService.CreateSession(ctx, usecase.CreateImportInput{
		OrganizationID: req.OrganizationID,
		CatalogID:      req.CatalogID,
		Rows:           rows,
		MaxWorkers:     req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create import session failed", "catalog_id", req.CatalogID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, info)
}

func (h *Handler) GetImportSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetImportSession")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	info, err := h.importService.Session(ctx, sessionID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, info)
}

func (h *Handler) CloseImportSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseImportSession")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	if err := h.importService.CloseSession(ctx, sessionID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *Handler) ListImportRows(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListImportRows")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	query := r.URL.Query()

	var (
		rows []card.ParsedRow
		err  error
	)
	switch {
	case strings.TrimSpace(query.Get("search")) != "":
		rows, err = h.importService.Search(ctx, sessionID, query.Get("search"))
	case query.Get("sort") == "card_number":
		descending := strings.EqualFold(query.Get("order"), "desc")
		rows, err = h.importService.SortedByCardNumber(ctx, sessionID, descending)
	default:
		rows, err = h.importService.Rows(ctx, sessionID)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rowsToDTO(ctx, rows))
}

func (h *Handler) GetImportRow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetImportRow")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	row, err := h.importService.Row(ctx, sessionID, sortOrder)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rowToDTO(ctx, row))
}

func (h *Handler) GetNextUnreadyRow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetNextUnreadyRow")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	row, ok, err := h.importService.NextUnready(ctx, sessionID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if !ok {
		writeSuccess(ctx, w, http.StatusOK, nil)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rowToDTO(ctx, row))
}

type toggleFlagRequest struct {
	Flag string `json:"flag" validate:"required"`
}

func (h *Handler) ToggleRowFlag(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleRowFlag")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req toggleFlagRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	row, err := h.importService.ToggleFlag(ctx, sessionID, sortOrder, card.Flag(req.Flag))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rowToDTO(ctx, row))
}

type setFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

func (h *Handler) SetRowField(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetRowField")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setFieldRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	row, err := h.importService.SetField(ctx, sessionID, sortOrder, card.Field(req.Field), req.Value)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rowToDTO(ctx, row))
}

type bulkSetFieldRequest struct {
	SortOrders []int  `json:"sortOrders" validate:"required,min=1"`
	Field      string `json:"field" validate:"required"`
	Value      string `json:"value"`
}

func (h *Handler) BulkSetRowField(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BulkSetRowField")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	var req bulkSetFieldRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.importService.BulkSetField(ctx, sessionID, req.SortOrders, card.Field(req.Field), req.Value)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"updatedCount": updated})
}

type selectPlayerRequest struct {
	MentionIndex int   `json:"mentionIndex" validate:"gte=0"`
	PlayerID     int64 `json:"playerId" validate:"required,gt=0"`
}

func (h *Handler) SelectPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectPlayer")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req selectPlayerRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.SelectPlayer(ctx, sessionID, sortOrder, req.MentionIndex, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "select player failed", "session_id", sessionID, "sort_order", sortOrder, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolutionToDTO(ctx, result))
}

type selectTeamRequest struct {
	MentionIndex  int   `json:"mentionIndex" validate:"gte=0"`
	TeamNameIndex int   `json:"teamNameIndex" validate:"gte=0"`
	TeamID        int64 `json:"teamId" validate:"required,gt=0"`
}

func (h *Handler) SelectTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectTeam")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req selectTeamRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.SelectTeam(ctx, sessionID, sortOrder, req.MentionIndex, req.TeamNameIndex, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "select team failed", "session_id", sessionID, "sort_order", sortOrder, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolutionToDTO(ctx, result))
}

type promoteFuzzyTeamRequest struct {
	RawTeamName string `json:"rawTeamName" validate:"required"`
	TeamID      int64  `json:"teamId" validate:"required,gt=0"`
}

func (h *Handler) PromoteFuzzyTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PromoteFuzzyTeam")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req promoteFuzzyTeamRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.PromoteFuzzyTeam(ctx, sessionID, sortOrder, req.RawTeamName, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "promote fuzzy team failed", "session_id", sessionID, "sort_order", sortOrder, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolutionToDTO(ctx, result))
}

type createPlayerRequest struct {
	MentionIndex int `json:"mentionIndex" validate:"gte=0"`
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePlayer")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createPlayerRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.CreatePlayer(ctx, sessionID, sortOrder, req.MentionIndex)
	if err != nil {
		h.logger.WarnContext(ctx, "create player failed", "session_id", sessionID, "sort_order", sortOrder, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, resolutionToDTO(ctx, result))
}

type createTeamRequest struct {
	RawTeamName string `json:"rawTeamName" validate:"required"`
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTeam")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createTeamRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.CreateTeam(ctx, sessionID, sortOrder, req.RawTeamName)
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed", "session_id", sessionID, "sort_order", sortOrder, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, resolutionToDTO(ctx, result))
}

type createLinkRequest struct {
	MentionIndex int   `json:"mentionIndex" validate:"gte=0"`
	TeamID       int64 `json:"teamId" validate:"required,gt=0"`
}

func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateLink")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sortOrder, err := parseSortOrder(r.PathValue("sortOrder"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createLinkRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.CreateLink(ctx, sessionID, sortOrder, req.MentionIndex, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "create link failed", "session_id", sessionID, "sort_order", sortOrder, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, resolutionToDTO(ctx, result))
}

func (h *Handler) CommitImportSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CommitImportSession")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	result, err := h.importService.Commit(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "commit import session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.directoryService.InvalidateDirectories(ctx)

	writeSuccess(ctx, w, http.StatusOK, result)
}

func decodeRequest(r *http.Request, target any) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func parseSortOrder(raw string) (int, error) {
	sortOrder, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || sortOrder <= 0 {
		return 0, fmt.Errorf("%w: sort order must be a positive integer", usecase.ErrInvalidInput)
	}
	return sortOrder, nil
}

func rowsFromInputs(inputs []importRowInput) []card.ParsedRow {
	rows := make([]card.ParsedRow, 0, len(inputs))
	for i, input := range inputs {
		row := card.NewParsedRow(i+1, input.CardNumber)
		for _, mention := range input.Players {
			row.Players = append(row.Players, card.NewPlayerMention(mention.Name, mention.TeamNames))
		}
		row.TeamNames = append(row.TeamNames, input.TeamNames...)
		row.Rookie = input.Rookie
		row.Autograph = input.Autograph
		row.Relic = input.Relic
		row.ShortPrint = input.ShortPrint
		row.PrintRun = input.PrintRun
		row.ColorID = input.ColorID
		row.Notes = input.Notes
		rows = append(rows, row)
	}
	return rows
}
