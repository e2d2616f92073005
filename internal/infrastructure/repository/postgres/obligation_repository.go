package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fantamercato/trade-engine/internal/domain/renewal"
)

type obligationTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	TeamID           string         `db:"team_id"`
	PlayerIDs        pq.StringArray `db:"player_ids"`
	RenewedPlayerIDs pq.StringArray `db:"renewed_player_ids"`
	State            string         `db:"state"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (m obligationTableModel) toDomain() renewal.Obligation {
	return renewal.Obligation{
		ID:               m.PublicID,
		TeamID:           m.TeamID,
		PlayerIDs:        []string(m.PlayerIDs),
		RenewedPlayerIDs: []string(m.RenewedPlayerIDs),
		State:            renewal.State(m.State),
		CreatedAt:        m.CreatedAt,
	}
}

const obligationColumns = `id, public_id, team_id, player_ids, renewed_player_ids, state, created_at, updated_at`

type ObligationRepository struct {
	db *sqlx.DB
}

func NewObligationRepository(db *sqlx.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

func (r *ObligationRepository) GetByID(ctx context.Context, obligationID string) (renewal.Obligation, bool, error) {
	query := `
SELECT ` + obligationColumns + `
FROM renewal_obligations
WHERE public_id = $1`

	var row obligationTableModel
	if err := r.db.GetContext(ctx, &row, query, obligationID); err != nil {
		if isNotFound(err) {
			return renewal.Obligation{}, false, nil
		}
		return renewal.Obligation{}, false, fmt.Errorf("get obligation: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ObligationRepository) FindPendingByTeamAndPlayer(ctx context.Context, teamID, playerID string) (renewal.Obligation, bool, error) {
	query := `
SELECT ` + obligationColumns + `
FROM renewal_obligations
WHERE team_id = $1
  AND state = 'pending'
  AND $2 = ANY(player_ids)
  AND NOT ($2 = ANY(renewed_player_ids))
ORDER BY created_at
LIMIT 1`

	var row obligationTableModel
	if err := r.db.GetContext(ctx, &row, query, teamID, playerID); err != nil {
		if isNotFound(err) {
			return renewal.Obligation{}, false, nil
		}
		return renewal.Obligation{}, false, fmt.Errorf("find pending obligation: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ObligationRepository) ListByTeam(ctx context.Context, teamID string) ([]renewal.Obligation, error) {
	query := `
SELECT ` + obligationColumns + `
FROM renewal_obligations
WHERE team_id = $1
ORDER BY created_at, public_id`

	var rows []obligationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("list obligations by team: %w", err)
	}

	obligations := make([]renewal.Obligation, 0, len(rows))
	for _, row := range rows {
		obligations = append(obligations, row.toDomain())
	}

	return obligations, nil
}

func (r *ObligationRepository) Save(ctx context.Context, o renewal.Obligation) error {
	return saveObligation(ctx, r.db, o)
}

func saveObligation(ctx context.Context, ext sqlx.ExtContext, o renewal.Obligation) error {
	const query = `
INSERT INTO renewal_obligations (public_id, team_id, player_ids, renewed_player_ids, state, created_at)
VALUES (:public_id, :team_id, :player_ids, :renewed_player_ids, :state, :created_at)
ON CONFLICT (public_id)
DO UPDATE SET
    renewed_player_ids = EXCLUDED.renewed_player_ids,
    state = EXCLUDED.state,
    updated_at = NOW()`

	playerIDs := o.PlayerIDs
	if playerIDs == nil {
		playerIDs = []string{}
	}
	renewedIDs := o.RenewedPlayerIDs
	if renewedIDs == nil {
		renewedIDs = []string{}
	}
	args := map[string]any{
		"public_id":          o.ID,
		"team_id":            o.TeamID,
		"player_ids":         pq.StringArray(playerIDs),
		"renewed_player_ids": pq.StringArray(renewedIDs),
		"state":              string(o.State),
		"created_at":         o.CreatedAt,
	}
	saveSQL, saveArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind save obligation query: %w", err)
	}
	saveSQL = ext.Rebind(saveSQL)
	if _, err := ext.ExecContext(ctx, saveSQL, saveArgs...); err != nil {
		return fmt.Errorf("save obligation: %w", err)
	}

	return nil
}
