package httpapi

import (
	"net/http"

	"github.com/slabtrack/cardstock/internal/usecase"
)

// RunImportCommittedExportJob consumes the queued post-commit job. The
// directory caches are invalidated so the next listing reflects the newly
// committed cards.
func (h *Handler) RunImportCommittedExportJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunImportCommittedExportJob")
	defer span.End()

	var event usecase.ImportCommittedEvent
	if err := decodeRequest(r, &event); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.directoryService.InvalidateDirectories(ctx)

	h.logger.InfoContext(ctx, "import committed export job processed",
		"session_id", event.SessionID,
		"catalog_id", event.CatalogID,
		"card_count", event.CardCount,
	)

	writeSuccess(ctx, w, http.StatusAccepted, map[string]any{
		"sessionId": event.SessionID,
		"cardCount": event.CardCount,
	})
}
