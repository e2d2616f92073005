package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/fantamercato/trade-engine/internal/usecase"
)

func (h *Handler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitProposal")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitProposalRequest
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

	// Managers submit on behalf of their own team; admins may name any team.
	requestingTeamID := strings.TrimSpace(req.RequestingTeamID)
	if requestingTeamID == "" {
		requestingTeamID = principal.TeamID
	}
	if !principal.Admin && requestingTeamID != principal.TeamID {
		writeError(ctx, w, fmt.Errorf("%w: member %s does not manage team %s", usecase.ErrForbidden, principal.MemberID, requestingTeamID))
		return
	}

	proposal, err := h.proposalService.Submit(ctx, usecase.SubmitProposalInput{
		RequestingTeamID:   requestingTeamID,
		OpposingTeamID:     req.OpposingTeamID,
		Kind:               req.Kind,
		OfferedPlayerIDs:   req.OfferedPlayerIDs,
		RequestedPlayerIDs: req.RequestedPlayerIDs,
		RequestedPlayerID:  req.RequestedPlayerID,
		OfferedCredits:     req.OfferedCredits,
		Clause:             req.Clause,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit proposal failed", "member_id", principal.MemberID, "requesting_team_id", requestingTeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, proposalToDTO(proposal))
}

func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProposal")
	defer span.End()

	proposal, err := h.proposalService.Get(ctx, r.PathValue("proposalID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, proposalToDTO(proposal))
}

func (h *Handler) ListTeamProposals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamProposals")
	defer span.End()

	proposals, err := h.proposalService.ListByTeam(ctx, r.PathValue("teamID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, proposalsToDTO(proposals))
}
