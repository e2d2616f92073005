package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/renewal"
	"github.com/fantamercato/trade-engine/internal/domain/valuation"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

// RenewPlayerInput selects the player and contract duration for a renewal.
type RenewPlayerInput struct {
	TeamID   string
	PlayerID string
	Months   int
}

// RenewalService runs the contract renewal workflow: pick a duration, apply
// the valuation renewal formula, stamp the new contract expiry, and complete
// the renewal obligation once every player it lists has been re-contracted.
type RenewalService struct {
	playerRepo  player.Repository
	renewalRepo renewal.Repository
	marketRepo  market.Repository
	auditor     *auditRecorder
	logger      *logging.Logger
	now         func() time.Time
}

func NewRenewalService(
	playerRepo player.Repository,
	renewalRepo renewal.Repository,
	marketRepo market.Repository,
	auditRepo audit.Repository,
	logger *logging.Logger,
) *RenewalService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RenewalService{
		playerRepo:  playerRepo,
		renewalRepo: renewalRepo,
		marketRepo:  marketRepo,
		auditor:     newAuditRecorder(auditRepo, logger),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *RenewalService) Renew(ctx context.Context, actor member.Principal, input RenewPlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RenewalService.Renew")
	defer span.End()

	input.TeamID = strings.TrimSpace(input.TeamID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.TeamID == "" || input.PlayerID == "" {
		return player.Player{}, fmt.Errorf("%w: team_id and player_id are required", ErrInvalidInput)
	}
	if actor.TeamID != input.TeamID && !actor.Admin {
		return player.Player{}, fmt.Errorf("%w: member %s does not manage team %s", ErrForbidden, actor.MemberID, input.TeamID)
	}

	window, exists, err := s.marketRepo.Get(ctx, market.KindRenewal)
	if err != nil {
		return player.Player{}, fmt.Errorf("get renewal window: %w", err)
	}
	if !exists || !window.IsOpen {
		return player.Player{}, fmt.Errorf("%w: renewal market", ErrMarketClosed)
	}

	p, exists, err := s.playerRepo.GetByID(ctx, input.PlayerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, input.PlayerID)
	}
	if p.OwnerTeamID != input.TeamID {
		return player.Player{}, fmt.Errorf("%w: player %s is not owned by team %s", ErrInvalidInput, p.ID, input.TeamID)
	}

	renewed, err := valuation.Renew(p, input.Months)
	if err != nil {
		return player.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	expiry := s.now().UTC().AddDate(0, input.Months, 0)
	p.BaseValue = renewed
	p.CurrentValue = renewed
	p.ContractExpiry = &expiry

	if err := p.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("validate renewed player: %w", err)
	}
	if err := s.playerRepo.Save(ctx, p); err != nil {
		return player.Player{}, fmt.Errorf("save renewed player: %w", err)
	}

	if err := s.settleObligation(ctx, input.TeamID, p.ID); err != nil {
		// The renewal itself is durable; a failed obligation update is
		// logged for the operator rather than unwinding the contract.
		s.logger.WarnContext(ctx, "update renewal obligation failed",
			"team_id", input.TeamID,
			"player_id", p.ID,
			"error", err,
		)
	}

	s.auditor.record(ctx, audit.Event{
		Action:     "player.renewed",
		Actor:      actor.MemberID,
		EntityKind: "player",
		EntityID:   p.ID,
		Detail: map[string]any{
			"team_id": input.TeamID,
			"months":  input.Months,
			"value":   renewed,
		},
	})

	s.logger.InfoContext(ctx, "player contract renewed",
		"player_id", p.ID,
		"team_id", input.TeamID,
		"months", input.Months,
		"new_value", renewed,
	)

	return p, nil
}

func (s *RenewalService) ListObligations(ctx context.Context, teamID string) ([]renewal.Obligation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RenewalService.ListObligations")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	obligations, err := s.renewalRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list obligations for team=%s: %w", teamID, err)
	}

	return obligations, nil
}

func (s *RenewalService) settleObligation(ctx context.Context, teamID, playerID string) error {
	obligation, exists, err := s.renewalRepo.FindPendingByTeamAndPlayer(ctx, teamID, playerID)
	if err != nil {
		return fmt.Errorf("find pending obligation: %w", err)
	}
	if !exists {
		return nil
	}
	if obligation.Renewed(playerID) {
		return nil
	}

	obligation.RenewedPlayerIDs = append(obligation.RenewedPlayerIDs, playerID)
	if obligation.AllRenewed() {
		obligation.State = renewal.StateCompleted
	}
	if err := s.renewalRepo.Save(ctx, obligation); err != nil {
		return fmt.Errorf("save obligation: %w", err)
	}

	if obligation.State == renewal.StateCompleted {
		s.auditor.record(ctx, audit.Event{
			Action:     "obligation.completed",
			Actor:      teamID,
			EntityKind: "obligation",
			EntityID:   obligation.ID,
		})
	}

	return nil
}
