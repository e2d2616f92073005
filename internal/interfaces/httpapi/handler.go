package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

type Handler struct {
	proposalService    *usecase.ProposalService
	approvalService    *usecase.ApprovalService
	settlementService  *usecase.SettlementService
	renewalService     *usecase.RenewalService
	marketService      *usecase.MarketService
	marketScheduler    *usecase.MarketScheduler
	revaluationService *usecase.RevaluationService
	teamService        *usecase.TeamService
	auditRepo          audit.Repository
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	proposalService *usecase.ProposalService,
	approvalService *usecase.ApprovalService,
	settlementService *usecase.SettlementService,
	renewalService *usecase.RenewalService,
	marketService *usecase.MarketService,
	marketScheduler *usecase.MarketScheduler,
	revaluationService *usecase.RevaluationService,
	teamService *usecase.TeamService,
	auditRepo audit.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		proposalService:    proposalService,
		approvalService:    approvalService,
		settlementService:  settlementService,
		renewalService:     renewalService,
		marketService:      marketService,
		marketScheduler:    marketScheduler,
		revaluationService: revaluationService,
		teamService:        teamService,
		auditRepo:          auditRepo,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type submitProposalRequest struct {
	RequestingTeamID   string   `json:"requesting_team_id" validate:"omitempty,max=64"`
	OpposingTeamID     string   `json:"opposing_team_id" validate:"required,max=64"`
	Kind               string   `json:"kind" validate:"required,oneof=players_only credits_only players_plus_credits"`
	OfferedPlayerIDs   []string `json:"offered_player_ids" validate:"omitempty,max=8,dive,required"`
	RequestedPlayerIDs []string `json:"requested_player_ids" validate:"omitempty,max=8,dive,required"`
	RequestedPlayerID  string   `json:"requested_player_id" validate:"omitempty,max=64"`
	OfferedCredits     int64    `json:"offered_credits" validate:"gte=0"`
	Clause             string   `json:"clause" validate:"omitempty,max=500"`
}

type renewPlayerRequest struct {
	TeamID   string `json:"team_id" validate:"omitempty,max=64"`
	PlayerID string `json:"player_id" validate:"required,max=64"`
	Months   int    `json:"months" validate:"required,oneof=12 18"`
}

type toggleWindowRequest struct {
	Open   bool `json:"open"`
	Silent bool `json:"silent"`
}

type setScheduleRequest struct {
	OpenAt  *time.Time `json:"open_at"`
	CloseAt *time.Time `json:"close_at"`
}

type revaluationRequest struct {
	MaxWorkers int  `json:"max_workers" validate:"gte=0,lte=64"`
	DryRun     bool `json:"dry_run"`
}
