package usecase

import (
	"errors"
	"testing"

	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/stats"
	"github.com/fantamercato/trade-engine/internal/domain/team"
	"github.com/fantamercato/trade-engine/internal/infrastructure/repository/memory"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

func newRevaluationFixture(t *testing.T) (*RevaluationService, *memory.PlayerRepository, *memory.TeamRepository) {
	t.Helper()

	// RosterValue is deliberately stale so the post-run refresh is visible.
	teamRepo := memory.NewTeamRepository([]team.Team{
		{ID: "team-alpha", Name: "Alpha", Credits: 100, RosterValue: 99, PlayerCount: 2},
	})
	playerRepo := memory.NewPlayerRepository([]player.Player{
		{ID: "p-mid", Name: "Mid", Position: player.PositionMidfielder, CurrentValue: 55, BaseValue: 50, OwnerTeamID: "team-alpha"},
		{ID: "p-def", Name: "Def", Position: player.PositionDefender, CurrentValue: 44, BaseValue: 40, OwnerTeamID: "team-alpha"},
		{ID: "p-new", Name: "New", Position: player.PositionForward, CurrentValue: 30, BaseValue: 30, OwnerTeamID: "team-alpha"},
		{ID: "p-free", Name: "Free", Position: player.PositionForward, CurrentValue: 70, BaseValue: 70},
	})
	statsRepo := memory.NewStatsRepository([]stats.SeasonStats{
		// 50 + 5 goals + round(4*0.5) - round(2*0.5) + round(20*0.4) = 64
		{PlayerID: "p-mid", Presences: 20, Goals: 5, Assists: 4, YellowCards: 2},
		// 40 + round(10*0.4) = 44, matching the current value
		{PlayerID: "p-def", Presences: 10},
	})

	service := NewRevaluationService(playerRepo, teamRepo, statsRepo, memory.NewAuditRepository(), logging.NewNop())
	return service, playerRepo, teamRepo
}

func TestRevaluationService_RecomputeAll(t *testing.T) {
	service, playerRepo, teamRepo := newRevaluationFixture(t)

	result, err := service.RecomputeAll(t.Context(), member.Principal{MemberID: "adm-1", Admin: true}, RevaluationInput{MaxWorkers: 2})
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	if result.PlayerCount != 3 {
		t.Fatalf("expected 3 rostered players, got %d", result.PlayerCount)
	}
	if result.UpdatedCount != 1 || result.UnchangedCount != 1 || result.SkippedCount != 1 || result.FailedCount != 0 {
		t.Fatalf("unexpected counts: updated=%d unchanged=%d skipped=%d failed=%d",
			result.UpdatedCount, result.UnchangedCount, result.SkippedCount, result.FailedCount)
	}
	if result.WorkerCount != 2 {
		t.Fatalf("expected 2 workers, got %d", result.WorkerCount)
	}
	if len(result.Tasks) != 3 {
		t.Fatalf("expected 3 task rows, got %d", len(result.Tasks))
	}

	updated, _, err := playerRepo.GetByID(t.Context(), "p-mid")
	if err != nil {
		t.Fatalf("reload p-mid: %v", err)
	}
	if updated.CurrentValue != 64 {
		t.Fatalf("expected p-mid value 64, got %d", updated.CurrentValue)
	}

	// The free agent is outside the rostered scope entirely.
	free, _, err := playerRepo.GetByID(t.Context(), "p-free")
	if err != nil {
		t.Fatalf("reload p-free: %v", err)
	}
	if free.CurrentValue != 70 {
		t.Fatalf("expected p-free untouched at 70, got %d", free.CurrentValue)
	}

	alpha, _, err := teamRepo.GetByID(t.Context(), "team-alpha")
	if err != nil {
		t.Fatalf("reload team-alpha: %v", err)
	}
	if alpha.RosterValue != 64+44+30 {
		t.Fatalf("expected refreshed roster value %d, got %d", 64+44+30, alpha.RosterValue)
	}
	if alpha.PlayerCount != 3 {
		t.Fatalf("expected refreshed player count 3, got %d", alpha.PlayerCount)
	}
}

func TestRevaluationService_RecomputeAll_DryRun(t *testing.T) {
	service, playerRepo, teamRepo := newRevaluationFixture(t)

	result, err := service.RecomputeAll(t.Context(), member.Principal{MemberID: "adm-1", Admin: true}, RevaluationInput{DryRun: true})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !result.DryRun {
		t.Fatalf("expected dry_run flagged in result")
	}
	if result.UpdatedCount != 1 {
		t.Fatalf("expected 1 would-be update, got %d", result.UpdatedCount)
	}

	unchanged, _, err := playerRepo.GetByID(t.Context(), "p-mid")
	if err != nil {
		t.Fatalf("reload p-mid: %v", err)
	}
	if unchanged.CurrentValue != 55 {
		t.Fatalf("expected dry run to leave value at 55, got %d", unchanged.CurrentValue)
	}

	alpha, _, err := teamRepo.GetByID(t.Context(), "team-alpha")
	if err != nil {
		t.Fatalf("reload team-alpha: %v", err)
	}
	if alpha.RosterValue != 99 {
		t.Fatalf("expected roster value untouched at 99, got %d", alpha.RosterValue)
	}
}

func TestRevaluationService_RecomputeAll_AdminOnly(t *testing.T) {
	service, _, _ := newRevaluationFixture(t)

	_, err := service.RecomputeAll(t.Context(), member.Principal{MemberID: "m-1", TeamID: "team-alpha"}, RevaluationInput{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
