package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

// ApprovalService is the admin gate between submission and settlement.
// Approve and Reject act only on pending proposals; a proposal that has
// already been decided is a conflict, never a re-decision.
type ApprovalService struct {
	proposalRepo trade.Repository
	notifier     Notifier
	auditor      *auditRecorder
	logger       *logging.Logger
	now          func() time.Time
}

func NewApprovalService(
	proposalRepo trade.Repository,
	notifier Notifier,
	auditRepo audit.Repository,
	logger *logging.Logger,
) *ApprovalService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ApprovalService{
		proposalRepo: proposalRepo,
		notifier:     notifier,
		auditor:      newAuditRecorder(auditRepo, logger),
		logger:       logger,
		now:          time.Now,
	}
}

func (s *ApprovalService) Approve(ctx context.Context, actor member.Principal, proposalID string) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApprovalService.Approve")
	defer span.End()

	proposal, err := s.decide(ctx, actor, proposalID, trade.StateAdminApproved)
	if err != nil {
		return trade.Proposal{}, err
	}

	subject := "Trade proposal approved"
	body := fmt.Sprintf("Proposal %s from team %s awaits your decision.", proposal.ID, proposal.RequestingTeamID)
	if err := s.notifier.Notify(ctx, TeamAudience(proposal.OpposingTeamID), subject, body); err != nil {
		s.logger.WarnContext(ctx, "approval notification failed",
			"proposal_id", proposal.ID,
			"opposing_team", proposal.OpposingTeamID,
			"error", err,
		)
	}

	return proposal, nil
}

func (s *ApprovalService) Reject(ctx context.Context, actor member.Principal, proposalID string) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApprovalService.Reject")
	defer span.End()

	return s.decide(ctx, actor, proposalID, trade.StateRejected)
}

func (s *ApprovalService) decide(ctx context.Context, actor member.Principal, proposalID string, to trade.State) (trade.Proposal, error) {
	if !actor.Admin {
		return trade.Proposal{}, fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}

	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return trade.Proposal{}, fmt.Errorf("%w: proposal id is required", ErrInvalidInput)
	}

	proposal, exists, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	if !exists {
		return trade.Proposal{}, fmt.Errorf("%w: proposal=%s", ErrNotFound, proposalID)
	}
	if proposal.State != trade.StatePending {
		return trade.Proposal{}, fmt.Errorf("%w: proposal %s already decided (state=%s)", ErrConflict, proposal.ID, proposal.State)
	}

	updated, err := s.proposalRepo.UpdateStateCAS(ctx, proposal.ID, trade.StatePending, to, proposal.Version, "")
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("transition proposal to %s: %w", to, err)
	}
	if !updated {
		return trade.Proposal{}, fmt.Errorf("%w: proposal %s was decided concurrently", ErrConflict, proposal.ID)
	}

	proposal.State = to
	proposal.Version++

	action := "proposal.approved"
	if to == trade.StateRejected {
		action = "proposal.rejected"
	}
	s.auditor.record(ctx, audit.Event{
		Action:     action,
		Actor:      actor.MemberID,
		EntityKind: "proposal",
		EntityID:   proposal.ID,
	})

	s.logger.InfoContext(ctx, "proposal decided",
		"proposal_id", proposal.ID,
		"state", string(to),
		"admin", actor.MemberID,
	)

	return proposal, nil
}
