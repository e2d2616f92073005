package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/team"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

// TeamRoster pairs a team with its currently owned players.
type TeamRoster struct {
	Team    team.Team
	Players []player.Player
}

type TeamService struct {
	teamRepo   team.Repository
	playerRepo player.Repository
	logger     *logging.Logger
}

func NewTeamService(teamRepo team.Repository, playerRepo player.Repository, logger *logging.Logger) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}

	return &TeamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		logger:     logger,
	}
}

func (s *TeamService) ListTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.ListTeams")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return teams, nil
}

func (s *TeamService) GetRoster(ctx context.Context, teamID string) (TeamRoster, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.GetRoster")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return TeamRoster{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return TeamRoster{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return TeamRoster{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	roster, err := s.playerRepo.ListByOwner(ctx, teamID)
	if err != nil {
		return TeamRoster{}, fmt.Errorf("list roster: %w", err)
	}

	return TeamRoster{Team: item, Players: roster}, nil
}
