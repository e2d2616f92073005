package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantamercato/trade-engine/internal/domain/team"
)

type teamTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	Name        string     `db:"name"`
	Credits     int64      `db:"credits"`
	RosterValue int64      `db:"roster_value"`
	PlayerCount int        `db:"player_count"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:          m.PublicID,
		Name:        m.Name,
		Credits:     m.Credits,
		RosterValue: m.RosterValue,
		PlayerCount: m.PlayerCount,
	}
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	const query = `
SELECT id, public_id, name, credits, roster_value, player_count, created_at, updated_at, deleted_at
FROM teams
WHERE public_id = $1
  AND deleted_at IS NULL`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, teamID); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	const query = `
SELECT id, public_id, name, credits, roster_value, player_count, created_at, updated_at, deleted_at
FROM teams
WHERE deleted_at IS NULL
ORDER BY public_id`

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	teams := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, row.toDomain())
	}

	return teams, nil
}

func (r *TeamRepository) Save(ctx context.Context, t team.Team) error {
	const query = `
INSERT INTO teams (public_id, name, credits, roster_value, player_count)
VALUES (:public_id, :name, :credits, :roster_value, :player_count)
ON CONFLICT (public_id)
DO UPDATE SET
    name = EXCLUDED.name,
    credits = EXCLUDED.credits,
    roster_value = EXCLUDED.roster_value,
    player_count = EXCLUDED.player_count,
    updated_at = NOW()`

	args := map[string]any{
		"public_id":    t.ID,
		"name":         t.Name,
		"credits":      t.Credits,
		"roster_value": t.RosterValue,
		"player_count": t.PlayerCount,
	}
	saveSQL, saveArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind save team query: %w", err)
	}
	saveSQL = r.db.Rebind(saveSQL)
	if _, err := r.db.ExecContext(ctx, saveSQL, saveArgs...); err != nil {
		return fmt.Errorf("save team: %w", err)
	}

	return nil
}
