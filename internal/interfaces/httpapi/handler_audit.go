package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fantamercato/trade-engine/internal/usecase"
)

func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAuditEvents")
	defer span.End()

	entityKind := strings.TrimSpace(r.PathValue("entityKind"))
	entityID := strings.TrimSpace(r.PathValue("entityID"))
	if entityKind == "" || entityID == "" {
		writeError(ctx, w, fmt.Errorf("%w: entity kind and id are required", usecase.ErrInvalidInput))
		return
	}

	events, err := h.auditRepo.ListByEntity(ctx, entityKind, entityID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auditEventsToDTO(events))
}
