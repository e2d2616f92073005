package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/stats"
	"github.com/fantamercato/trade-engine/internal/domain/team"
	"github.com/fantamercato/trade-engine/internal/domain/valuation"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

const (
	revaluationStatusUpdated   = "updated"
	revaluationStatusUnchanged = "unchanged"
	revaluationStatusFailed    = "failed"
	revaluationStatusSkipped   = "skipped"

	defaultRevaluationWorkers = 8
)

type RevaluationInput struct {
	MaxWorkers int
	// DryRun computes new values without writing them.
	DryRun bool
}

type RevaluationResult struct {
	PlayerCount    int                     `json:"player_count"`
	UpdatedCount   int                     `json:"updated_count"`
	UnchangedCount int                     `json:"unchanged_count"`
	FailedCount    int                     `json:"failed_count"`
	SkippedCount   int                     `json:"skipped_count"`
	WorkerCount    int                     `json:"worker_count"`
	DryRun         bool                    `json:"dry_run"`
	Tasks          []RevaluationTaskResult `json:"tasks"`
}

type RevaluationTaskResult struct {
	PlayerID   string `json:"player_id"`
	OldValue   int64  `json:"old_value"`
	NewValue   int64  `json:"new_value"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// RevaluationService recomputes every rostered player's market value from
// season statistics, fanning the work across an ants pool. It is the
// season-end admin counterpart of the per-player renewal path; team roster
// values are refreshed afterwards so the derived figures stay consistent.
type RevaluationService struct {
	playerRepo player.Repository
	teamRepo   team.Repository
	statsRepo  stats.Repository
	auditor    *auditRecorder
	logger     *logging.Logger
	now        func() time.Time
}

func NewRevaluationService(
	playerRepo player.Repository,
	teamRepo team.Repository,
	statsRepo stats.Repository,
	auditRepo audit.Repository,
	logger *logging.Logger,
) *RevaluationService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RevaluationService{
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		statsRepo:  statsRepo,
		auditor:    newAuditRecorder(auditRepo, logger),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *RevaluationService) RecomputeAll(ctx context.Context, actor member.Principal, input RevaluationInput) (RevaluationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RevaluationService.RecomputeAll")
	defer span.End()

	if !actor.Admin {
		return RevaluationResult{}, fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}

	players, err := s.playerRepo.ListRostered(ctx)
	if err != nil {
		return RevaluationResult{}, fmt.Errorf("list rostered players: %w", err)
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = defaultRevaluationWorkers
	}
	if workerCount > len(players) && len(players) > 0 {
		workerCount = len(players)
	}

	result := RevaluationResult{
		PlayerCount: len(players),
		WorkerCount: workerCount,
		DryRun:      input.DryRun,
	}
	if len(players) == 0 {
		return result, nil
	}

	playerIDs := make([]string, 0, len(players))
	for _, p := range players {
		playerIDs = append(playerIDs, p.ID)
	}
	statsByPlayer, err := s.statsRepo.GetByPlayers(ctx, playerIDs)
	if err != nil {
		return RevaluationResult{}, fmt.Errorf("get season stats: %w", err)
	}

	results := make(chan RevaluationTaskResult, len(players))

	var updatedCount atomic.Int32
	var unchangedCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RevaluationResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, p := range players {
		p := p
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.recomputePlayer(ctx, p, statsByPlayer, input.DryRun)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case revaluationStatusUpdated:
				updatedCount.Add(1)
			case revaluationStatusUnchanged:
				unchangedCount.Add(1)
			case revaluationStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return RevaluationResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].PlayerID < result.Tasks[j].PlayerID
	})

	result.UpdatedCount = int(updatedCount.Load())
	result.UnchangedCount = int(unchangedCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())

	if !input.DryRun && result.UpdatedCount > 0 {
		if err := s.refreshRosterValues(ctx); err != nil {
			s.logger.WarnContext(ctx, "refresh roster values failed", "error", err)
		}
	}

	s.auditor.record(ctx, audit.Event{
		Action:     "valuation.recomputed",
		Actor:      actor.MemberID,
		EntityKind: "league",
		EntityID:   "all",
		Detail: map[string]any{
			"players": result.PlayerCount,
			"updated": result.UpdatedCount,
			"dry_run": input.DryRun,
		},
	})

	return result, nil
}

func (s *RevaluationService) recomputePlayer(ctx context.Context, p player.Player, statsByPlayer map[string]stats.SeasonStats, dryRun bool) RevaluationTaskResult {
	row := RevaluationTaskResult{PlayerID: p.ID, OldValue: p.CurrentValue}

	seasonStats, ok := statsByPlayer[p.ID]
	if !ok {
		row.Status = revaluationStatusSkipped
		row.NewValue = p.CurrentValue
		row.Message = "no season stats"
		return row
	}

	newValue := valuation.Recompute(p, seasonStats)
	row.NewValue = newValue
	if newValue == p.CurrentValue {
		row.Status = revaluationStatusUnchanged
		return row
	}
	if dryRun {
		row.Status = revaluationStatusUpdated
		return row
	}

	p.CurrentValue = newValue
	if err := s.playerRepo.Save(ctx, p); err != nil {
		row.Status = revaluationStatusFailed
		row.Message = err.Error()
		return row
	}

	row.Status = revaluationStatusUpdated
	return row
}

func (s *RevaluationService) refreshRosterValues(ctx context.Context) error {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}

	for _, t := range teams {
		roster, err := s.playerRepo.ListByOwner(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("list roster for team=%s: %w", t.ID, err)
		}

		var rosterValue int64
		for _, p := range roster {
			rosterValue += p.CurrentValue
		}
		if rosterValue == t.RosterValue && len(roster) == t.PlayerCount {
			continue
		}

		t.RosterValue = rosterValue
		t.PlayerCount = len(roster)
		if err := s.teamRepo.Save(ctx, t); err != nil {
			return fmt.Errorf("save team=%s: %w", t.ID, err)
		}
	}

	return nil
}
