package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

func (h *Handler) GetMarketWindow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMarketWindow")
	defer span.End()

	window, err := h.marketService.GetWindow(ctx, market.Kind(r.PathValue("kind")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, windowToDTO(window))
}

func (h *Handler) ToggleMarketWindow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleMarketWindow")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req toggleWindowRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	kind := market.Kind(r.PathValue("kind"))
	effective, err := h.marketService.Toggle(ctx, usecase.ToggleWindowInput{
		Kind:   kind,
		Open:   req.Open,
		Silent: req.Silent,
		Actor:  principal.MemberID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "toggle market window failed", "member_id", principal.MemberID, "kind", string(kind), "error", err)
		writeError(ctx, w, err)
		return
	}

	window, err := h.marketService.GetWindow(ctx, kind)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"effective": effective,
		"window":    windowToDTO(window),
	})
}

func (h *Handler) SetMarketSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetMarketSchedule")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req setScheduleRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	kind := market.Kind(r.PathValue("kind"))
	window, err := h.marketService.SetSchedule(ctx, kind, req.OpenAt, req.CloseAt, principal.MemberID)
	if err != nil {
		h.logger.WarnContext(ctx, "set market schedule failed", "member_id", principal.MemberID, "kind", string(kind), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, windowToDTO(window))
}

// RunMarketTick drives one scheduler pass over every market window. It backs
// the internal job endpoint so an external cron can own the cadence.
func (h *Handler) RunMarketTick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunMarketTick")
	defer span.End()

	h.marketScheduler.Tick(ctx)

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
