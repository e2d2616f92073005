package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/team"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
	idgen "github.com/fantamercato/trade-engine/internal/platform/id"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/platform/resilience"
)

// SettlementService executes accepted proposals. Accept is at-most-once:
// a per-proposal mutex serializes in-process callers and the versioned CAS
// from admin_approved to settling fences out every other writer before any
// ledger mutation happens. The full transfer is applied as one atomic store
// operation and retried with bounded backoff on transient store errors; an
// exhausted retry parks the proposal in failed_settlement for the operator
// instead of leaving it half-applied.
type SettlementService struct {
	proposalRepo   trade.Repository
	settlementRepo trade.SettlementRepository
	teamRepo       team.Repository
	playerRepo     player.Repository
	idGen          idgen.Generator
	notifier       Notifier
	auditor        *auditRecorder
	logger         *logging.Logger
	retryCfg       resilience.RetryConfig
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSettlementService(
	proposalRepo trade.Repository,
	settlementRepo trade.SettlementRepository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	idGen idgen.Generator,
	notifier Notifier,
	auditRepo audit.Repository,
	retryCfg resilience.RetryConfig,
	logger *logging.Logger,
) *SettlementService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SettlementService{
		proposalRepo:   proposalRepo,
		settlementRepo: settlementRepo,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		idGen:          idGen,
		notifier:       notifier,
		auditor:        newAuditRecorder(auditRepo, logger),
		logger:         logger,
		retryCfg:       resilience.NormalizeRetryConfig(retryCfg),
		now:            time.Now,
		locks:          make(map[string]*sync.Mutex),
	}
}

// Accept settles an approved proposal on behalf of the opposing team.
func (s *SettlementService) Accept(ctx context.Context, actor member.Principal, proposalID string) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.Accept")
	defer span.End()

	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return trade.Proposal{}, fmt.Errorf("%w: proposal id is required", ErrInvalidInput)
	}

	lock := s.proposalLock(proposalID)
	lock.Lock()
	defer lock.Unlock()

	proposal, exists, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	if !exists {
		return trade.Proposal{}, fmt.Errorf("%w: proposal=%s", ErrNotFound, proposalID)
	}
	if actor.TeamID != proposal.OpposingTeamID && !actor.Admin {
		return trade.Proposal{}, fmt.Errorf("%w: only team %s may accept proposal %s", ErrForbidden, proposal.OpposingTeamID, proposal.ID)
	}
	switch proposal.State {
	case trade.StateAdminApproved:
		// proceed
	case trade.StateSettling:
		return trade.Proposal{}, fmt.Errorf("%w: proposal %s is already settling", ErrConflict, proposal.ID)
	default:
		return trade.Proposal{}, fmt.Errorf("%w: proposal %s is not accepting (state=%s)", ErrConflict, proposal.ID, proposal.State)
	}

	requestingTeam, err := s.getTeam(ctx, proposal.RequestingTeamID)
	if err != nil {
		return trade.Proposal{}, err
	}
	opposingTeam, err := s.getTeam(ctx, proposal.OpposingTeamID)
	if err != nil {
		return trade.Proposal{}, err
	}

	// Credits are re-checked at acceptance: approval time solvency can have
	// drifted through other settlements.
	if proposal.OfferedCredits > requestingTeam.Credits {
		return trade.Proposal{}, fmt.Errorf("%w: team %s no longer holds %d credits", ErrConflict, requestingTeam.ID, proposal.OfferedCredits)
	}

	// Fence out concurrent accepts before touching the ledger.
	won, err := s.proposalRepo.UpdateStateCAS(ctx, proposal.ID, trade.StateAdminApproved, trade.StateSettling, proposal.Version, "")
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("transition proposal to settling: %w", err)
	}
	if !won {
		return trade.Proposal{}, fmt.Errorf("%w: proposal %s is already settling", ErrConflict, proposal.ID)
	}
	proposal.State = trade.StateSettling
	proposal.Version++

	settlement, err := s.buildSettlement(ctx, proposal, requestingTeam, opposingTeam)
	if err != nil {
		s.park(ctx, proposal, err)
		return trade.Proposal{}, err
	}

	applyErr := resilience.Retry(ctx, s.retryCfg, transientStoreError, func(ctx context.Context) error {
		return s.settlementRepo.Apply(ctx, settlement)
	})
	if applyErr != nil {
		s.park(ctx, proposal, applyErr)
		return trade.Proposal{}, fmt.Errorf("%w: settlement for proposal %s: %v", ErrStoreUnavailable, proposal.ID, applyErr)
	}

	proposal.State = trade.StateCompleted
	proposal.Version++
	completedAt := settlement.CompletedAt
	proposal.CompletedAt = &completedAt

	s.auditor.record(ctx, audit.Event{
		Action:     "proposal.completed",
		Actor:      actor.MemberID,
		EntityKind: "proposal",
		EntityID:   proposal.ID,
		Detail: map[string]any{
			"transfers":       len(settlement.Transfers),
			"offered_credits": proposal.OfferedCredits,
		},
	})

	subject := "Trade completed"
	body := fmt.Sprintf("Proposal %s between team %s and team %s has settled.", proposal.ID, proposal.RequestingTeamID, proposal.OpposingTeamID)
	for _, audience := range []Audience{TeamAudience(proposal.RequestingTeamID), TeamAudience(proposal.OpposingTeamID)} {
		if err := s.notifier.Notify(ctx, audience, subject, body); err != nil {
			s.logger.WarnContext(ctx, "settlement notification failed",
				"proposal_id", proposal.ID,
				"audience", string(audience),
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "proposal settled",
		"proposal_id", proposal.ID,
		"transfers", len(settlement.Transfers),
		"credits", proposal.OfferedCredits,
	)

	return proposal, nil
}

// buildSettlement precomputes the full effect of the trade: every ownership
// move, both teams' post-trade credits and derived roster figures, and one
// renewal obligation per receiving side.
func (s *SettlementService) buildSettlement(ctx context.Context, proposal trade.Proposal, requestingTeam, opposingTeam team.Team) (trade.Settlement, error) {
	toOpposing := proposal.OfferedPlayerIDs
	toRequesting := proposal.RequestedPlayerIDs
	if proposal.Kind == trade.KindCreditsOnly {
		toRequesting = []string{proposal.RequestedPlayerID}
	}

	transfers := make([]trade.PlayerTransfer, 0, len(toOpposing)+len(toRequesting))
	for _, playerID := range toOpposing {
		if err := s.checkOwnership(ctx, playerID, requestingTeam.ID); err != nil {
			return trade.Settlement{}, err
		}
		transfers = append(transfers, trade.PlayerTransfer{
			PlayerID:   playerID,
			FromTeamID: requestingTeam.ID,
			ToTeamID:   opposingTeam.ID,
		})
	}
	for _, playerID := range toRequesting {
		if err := s.checkOwnership(ctx, playerID, opposingTeam.ID); err != nil {
			return trade.Settlement{}, err
		}
		transfers = append(transfers, trade.PlayerTransfer{
			PlayerID:   playerID,
			FromTeamID: opposingTeam.ID,
			ToTeamID:   requestingTeam.ID,
		})
	}

	requestingUpdate, err := s.teamUpdateAfter(ctx, requestingTeam, -proposal.OfferedCredits, toRequesting, toOpposing)
	if err != nil {
		return trade.Settlement{}, err
	}
	opposingUpdate, err := s.teamUpdateAfter(ctx, opposingTeam, proposal.OfferedCredits, toOpposing, toRequesting)
	if err != nil {
		return trade.Settlement{}, err
	}

	obligations := make([]trade.ObligationSpec, 0, 2)
	for _, side := range []struct {
		teamID   string
		received []string
	}{
		{requestingTeam.ID, toRequesting},
		{opposingTeam.ID, toOpposing},
	} {
		if len(side.received) == 0 {
			continue
		}
		obligationID, err := s.idGen.NewID()
		if err != nil {
			return trade.Settlement{}, fmt.Errorf("generate obligation id: %w", err)
		}
		obligations = append(obligations, trade.ObligationSpec{
			ObligationID: obligationID,
			TeamID:       side.teamID,
			PlayerIDs:    append([]string(nil), side.received...),
		})
	}

	return trade.Settlement{
		ProposalID:      proposal.ID,
		ProposalVersion: proposal.Version,
		Transfers:       transfers,
		Teams:           []trade.TeamUpdate{requestingUpdate, opposingUpdate},
		Obligations:     obligations,
		CompletedAt:     s.now().UTC(),
	}, nil
}

// teamUpdateAfter derives one team's post-settlement credits, roster value,
// and player count from its current roster plus the incoming and outgoing
// player sets.
func (s *SettlementService) teamUpdateAfter(ctx context.Context, t team.Team, creditsDelta int64, incoming, outgoing []string) (trade.TeamUpdate, error) {
	roster, err := s.playerRepo.ListByOwner(ctx, t.ID)
	if err != nil {
		return trade.TeamUpdate{}, fmt.Errorf("list roster for team=%s: %w", t.ID, err)
	}

	outgoingSet := make(map[string]struct{}, len(outgoing))
	for _, id := range outgoing {
		outgoingSet[id] = struct{}{}
	}

	var rosterValue int64
	playerCount := 0
	for _, p := range roster {
		if _, leaves := outgoingSet[p.ID]; leaves {
			continue
		}
		rosterValue += p.CurrentValue
		playerCount++
	}

	if len(incoming) > 0 {
		incomingPlayers, err := s.playerRepo.GetByIDs(ctx, incoming)
		if err != nil {
			return trade.TeamUpdate{}, fmt.Errorf("get incoming players for team=%s: %w", t.ID, err)
		}
		for _, p := range incomingPlayers {
			rosterValue += p.CurrentValue
			playerCount++
		}
	}

	return trade.TeamUpdate{
		TeamID:      t.ID,
		Credits:     t.Credits + creditsDelta,
		RosterValue: rosterValue,
		PlayerCount: playerCount,
	}, nil
}

func (s *SettlementService) checkOwnership(ctx context.Context, playerID, ownerTeamID string) error {
	p, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("get player %s: %w", playerID, err)
	}
	if !exists {
		return fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}
	if p.OwnerTeamID != ownerTeamID {
		return fmt.Errorf("%w: player %s is no longer owned by team %s", ErrConflict, playerID, ownerTeamID)
	}
	return nil
}

// park moves a settling proposal to failed_settlement with the failure
// recorded for operator intervention. A parked proposal is never retried
// automatically.
func (s *SettlementService) park(ctx context.Context, proposal trade.Proposal, cause error) {
	parked, err := s.proposalRepo.UpdateStateCAS(ctx, proposal.ID, trade.StateSettling, trade.StateFailedSettlement, proposal.Version, cause.Error())
	if err != nil || !parked {
		s.logger.ErrorContext(ctx, "parking failed settlement did not apply",
			"proposal_id", proposal.ID,
			"cause", cause,
			"error", err,
		)
	}

	s.auditor.record(ctx, audit.Event{
		Action:     "proposal.settlement_failed",
		Actor:      "settlement-executor",
		EntityKind: "proposal",
		EntityID:   proposal.ID,
		Outcome:    audit.OutcomeFailed,
		Detail:     map[string]any{"reason": cause.Error()},
	})
}

func (s *SettlementService) getTeam(ctx context.Context, teamID string) (team.Team, error) {
	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	return item, nil
}

func (s *SettlementService) proposalLock(proposalID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[proposalID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[proposalID] = lock
	}
	return lock
}

// transientStoreError decides what the settlement retry loop may re-attempt:
// anything except a definitive rejection from our own taxonomy.
func transientStoreError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
