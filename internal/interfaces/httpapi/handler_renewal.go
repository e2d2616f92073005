package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/fantamercato/trade-engine/internal/usecase"
)

func (h *Handler) RenewContract(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenewContract")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req renewPlayerRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	teamID := strings.TrimSpace(req.TeamID)
	if teamID == "" {
		teamID = principal.TeamID
	}

	renewed, err := h.renewalService.Renew(ctx, principal, usecase.RenewPlayerInput{
		TeamID:   teamID,
		PlayerID: req.PlayerID,
		Months:   req.Months,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "renew contract failed", "member_id", principal.MemberID, "team_id", teamID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(renewed))
}

func (h *Handler) ListTeamObligations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamObligations")
	defer span.End()

	obligations, err := h.renewalService.ListObligations(ctx, r.PathValue("teamID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, obligationsToDTO(obligations))
}
