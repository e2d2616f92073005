package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/renewal"
	"github.com/fantamercato/trade-engine/internal/domain/team"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
	idgen "github.com/fantamercato/trade-engine/internal/platform/id"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

// SubmitProposalInput is the incoming payload for a new trade proposal.
type SubmitProposalInput struct {
	RequestingTeamID   string
	OpposingTeamID     string
	Kind               string
	OfferedPlayerIDs   []string
	RequestedPlayerIDs []string
	RequestedPlayerID  string
	OfferedCredits     int64
	Clause             string
}

// ProposalService is the submission-time validator: it gates on the trade
// window, enforces per-kind field rules and the credit ceiling, rejects
// duplicate active proposals, and persists new proposals in pending state.
// It never mutates players, teams, or existing proposals.
type ProposalService struct {
	proposalRepo trade.Repository
	teamRepo     team.Repository
	playerRepo   player.Repository
	renewalRepo  renewal.Repository
	marketRepo   market.Repository
	idGen        idgen.Generator
	auditor      *auditRecorder
	logger       *logging.Logger
	now          func() time.Time
}

func NewProposalService(
	proposalRepo trade.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	renewalRepo renewal.Repository,
	marketRepo market.Repository,
	idGen idgen.Generator,
	auditRepo audit.Repository,
	logger *logging.Logger,
) *ProposalService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ProposalService{
		proposalRepo: proposalRepo,
		teamRepo:     teamRepo,
		playerRepo:   playerRepo,
		renewalRepo:  renewalRepo,
		marketRepo:   marketRepo,
		idGen:        idGen,
		auditor:      newAuditRecorder(auditRepo, logger),
		logger:       logger,
		now:          time.Now,
	}
}

func (s *ProposalService) Submit(ctx context.Context, input SubmitProposalInput) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProposalService.Submit")
	defer span.End()

	input.RequestingTeamID = strings.TrimSpace(input.RequestingTeamID)
	input.OpposingTeamID = strings.TrimSpace(input.OpposingTeamID)
	input.Kind = strings.TrimSpace(input.Kind)
	input.RequestedPlayerID = strings.TrimSpace(input.RequestedPlayerID)
	input.Clause = strings.TrimSpace(input.Clause)

	window, exists, err := s.marketRepo.Get(ctx, market.KindTrade)
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("get trade window: %w", err)
	}
	if !exists || !window.IsOpen {
		return trade.Proposal{}, fmt.Errorf("%w: trade market", ErrMarketClosed)
	}

	proposalID, err := s.idGen.NewID()
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("generate proposal id: %w", err)
	}

	now := s.now().UTC()
	proposal := trade.Proposal{
		ID:                 proposalID,
		RequestingTeamID:   input.RequestingTeamID,
		OpposingTeamID:     input.OpposingTeamID,
		Kind:               trade.Kind(input.Kind),
		OfferedPlayerIDs:   cleanIDs(input.OfferedPlayerIDs),
		RequestedPlayerIDs: cleanIDs(input.RequestedPlayerIDs),
		RequestedPlayerID:  input.RequestedPlayerID,
		OfferedCredits:     input.OfferedCredits,
		Clause:             input.Clause,
		State:              trade.StatePending,
		Version:            1,
		CreatedAt:          now,
	}
	if err := proposal.Validate(); err != nil {
		return trade.Proposal{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	requestingTeam, err := s.getTeam(ctx, proposal.RequestingTeamID)
	if err != nil {
		return trade.Proposal{}, err
	}
	if _, err := s.getTeam(ctx, proposal.OpposingTeamID); err != nil {
		return trade.Proposal{}, err
	}

	if proposal.OfferedCredits > requestingTeam.Credits {
		return trade.Proposal{}, fmt.Errorf("%w: team %s offers %d credits but holds %d",
			ErrInvalidInput, requestingTeam.ID, proposal.OfferedCredits, requestingTeam.Credits)
	}

	if err := s.checkPlayerSide(ctx, proposal.OfferedPlayerIDs, proposal.RequestingTeamID, "offered"); err != nil {
		return trade.Proposal{}, err
	}
	requestedIDs := proposal.RequestedPlayerIDs
	if proposal.Kind == trade.KindCreditsOnly {
		requestedIDs = []string{proposal.RequestedPlayerID}
	}
	if err := s.checkPlayerSide(ctx, requestedIDs, proposal.OpposingTeamID, "requested"); err != nil {
		return trade.Proposal{}, err
	}

	if existing, found, err := s.proposalRepo.FindActiveByTerms(ctx, proposal.TermsKey()); err != nil {
		return trade.Proposal{}, fmt.Errorf("find active proposal by terms: %w", err)
	} else if found {
		return trade.Proposal{}, fmt.Errorf("%w: proposal %s", ErrDuplicateProposal, existing.ID)
	}

	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("create proposal: %w", err)
	}

	s.auditor.record(ctx, audit.Event{
		Action:     "proposal.created",
		Actor:      proposal.RequestingTeamID,
		EntityKind: "proposal",
		EntityID:   proposal.ID,
		Detail: map[string]any{
			"kind":            string(proposal.Kind),
			"opposing_team":   proposal.OpposingTeamID,
			"offered_credits": proposal.OfferedCredits,
		},
	})

	s.logger.InfoContext(ctx, "proposal submitted",
		"proposal_id", proposal.ID,
		"requesting_team", proposal.RequestingTeamID,
		"opposing_team", proposal.OpposingTeamID,
		"kind", string(proposal.Kind),
	)

	return proposal, nil
}

func (s *ProposalService) Get(ctx context.Context, proposalID string) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProposalService.Get")
	defer span.End()

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

	return proposal, nil
}

func (s *ProposalService) ListByTeam(ctx context.Context, teamID string) ([]trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProposalService.ListByTeam")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if _, err := s.getTeam(ctx, teamID); err != nil {
		return nil, err
	}

	proposals, err := s.proposalRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list proposals for team=%s: %w", teamID, err)
	}

	return proposals, nil
}

func (s *ProposalService) getTeam(ctx context.Context, teamID string) (team.Team, error) {
	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	return item, nil
}

// checkPlayerSide verifies every listed player exists, is currently owned by
// the expected team, and is not awaiting renewal from an earlier trade.
func (s *ProposalService) checkPlayerSide(ctx context.Context, playerIDs []string, ownerTeamID, side string) error {
	if len(playerIDs) == 0 {
		return nil
	}

	players, err := s.playerRepo.GetByIDs(ctx, playerIDs)
	if err != nil {
		return fmt.Errorf("get %s players: %w", side, err)
	}
	byID := make(map[string]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	for _, playerID := range playerIDs {
		p, ok := byID[playerID]
		if !ok {
			return fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
		}
		if p.OwnerTeamID != ownerTeamID {
			return fmt.Errorf("%w: %s player %s is not owned by team %s", ErrInvalidInput, side, playerID, ownerTeamID)
		}
		if s.renewalRepo != nil {
			if _, pending, err := s.renewalRepo.FindPendingByTeamAndPlayer(ctx, ownerTeamID, playerID); err != nil {
				return fmt.Errorf("check renewal obligation for player=%s: %w", playerID, err)
			} else if pending {
				return fmt.Errorf("%w: player %s is awaiting contract renewal", ErrInvalidInput, playerID)
			}
		}
	}

	return nil
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
