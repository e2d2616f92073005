package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fantamercato/trade-engine/internal/domain/player"
)

type playerTableModel struct {
	ID             int64      `db:"id"`
	PublicID       string     `db:"public_id"`
	Name           string     `db:"name"`
	Position       string     `db:"position"`
	CurrentValue   int64      `db:"current_value"`
	BaseValue      int64      `db:"base_value"`
	OwnerTeamID    *string    `db:"owner_team_id"`
	ContractExpiry *time.Time `db:"contract_expiry"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (m playerTableModel) toDomain() player.Player {
	p := player.Player{
		ID:           m.PublicID,
		Name:         m.Name,
		Position:     player.Position(m.Position),
		CurrentValue: m.CurrentValue,
		BaseValue:    m.BaseValue,
	}
	if m.OwnerTeamID != nil {
		p.OwnerTeamID = *m.OwnerTeamID
	}
	if m.ContractExpiry != nil {
		expiry := *m.ContractExpiry
		p.ContractExpiry = &expiry
	}
	return p
}

const playerColumns = `id, public_id, name, position, current_value, base_value, owner_team_id, contract_expiry, created_at, updated_at, deleted_at`

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	query := `
SELECT ` + playerColumns + `
FROM players
WHERE public_id = $1
  AND deleted_at IS NULL`

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, playerID); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	query := `
SELECT ` + playerColumns + `
FROM players
WHERE public_id = ANY($1)
  AND deleted_at IS NULL
ORDER BY public_id`

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(playerIDs)); err != nil {
		return nil, fmt.Errorf("get players by ids: %w", err)
	}

	return toDomainPlayers(rows), nil
}

func (r *PlayerRepository) ListByOwner(ctx context.Context, teamID string) ([]player.Player, error) {
	query := `
SELECT ` + playerColumns + `
FROM players
WHERE owner_team_id = $1
  AND deleted_at IS NULL
ORDER BY public_id`

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("list players by owner: %w", err)
	}

	return toDomainPlayers(rows), nil
}

func (r *PlayerRepository) ListRostered(ctx context.Context) ([]player.Player, error) {
	query := `
SELECT ` + playerColumns + `
FROM players
WHERE owner_team_id IS NOT NULL
  AND deleted_at IS NULL
ORDER BY public_id`

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list rostered players: %w", err)
	}

	return toDomainPlayers(rows), nil
}

func (r *PlayerRepository) Save(ctx context.Context, p player.Player) error {
	const query = `
INSERT INTO players (public_id, name, position, current_value, base_value, owner_team_id, contract_expiry)
VALUES (:public_id, :name, :position, :current_value, :base_value, :owner_team_id, :contract_expiry)
ON CONFLICT (public_id)
DO UPDATE SET
    name = EXCLUDED.name,
    position = EXCLUDED.position,
    current_value = EXCLUDED.current_value,
    base_value = EXCLUDED.base_value,
    owner_team_id = EXCLUDED.owner_team_id,
    contract_expiry = EXCLUDED.contract_expiry,
    updated_at = NOW()`

	var ownerTeamID *string
	if p.OwnerTeamID != "" {
		ownerTeamID = &p.OwnerTeamID
	}
	args := map[string]any{
		"public_id":       p.ID,
		"name":            p.Name,
		"position":        string(p.Position),
		"current_value":   p.CurrentValue,
		"base_value":      p.BaseValue,
		"owner_team_id":   ownerTeamID,
		"contract_expiry": p.ContractExpiry,
	}
	saveSQL, saveArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind save player query: %w", err)
	}
	saveSQL = r.db.Rebind(saveSQL)
	if _, err := r.db.ExecContext(ctx, saveSQL, saveArgs...); err != nil {
		return fmt.Errorf("save player: %w", err)
	}

	return nil
}

func toDomainPlayers(rows []playerTableModel) []player.Player {
	players := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toDomain())
	}
	return players
}
