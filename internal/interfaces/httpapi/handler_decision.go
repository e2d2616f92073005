package httpapi

import (
	"fmt"
	"net/http"

	"github.com/fantamercato/trade-engine/internal/usecase"
)

func (h *Handler) ApproveProposal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApproveProposal")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	proposalID := r.PathValue("proposalID")
	proposal, err := h.approvalService.Approve(ctx, principal, proposalID)
	if err != nil {
		h.logger.WarnContext(ctx, "approve proposal failed", "member_id", principal.MemberID, "proposal_id", proposalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, proposalToDTO(proposal))
}

func (h *Handler) RejectProposal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectProposal")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	proposalID := r.PathValue("proposalID")
	proposal, err := h.approvalService.Reject(ctx, principal, proposalID)
	if err != nil {
		h.logger.WarnContext(ctx, "reject proposal failed", "member_id", principal.MemberID, "proposal_id", proposalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, proposalToDTO(proposal))
}

func (h *Handler) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptProposal")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	proposalID := r.PathValue("proposalID")
	proposal, err := h.settlementService.Accept(ctx, principal, proposalID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept proposal failed", "member_id", principal.MemberID, "proposal_id", proposalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, proposalToDTO(proposal))
}
