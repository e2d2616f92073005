package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantamercato/trade-engine/internal/domain/renewal"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
)

// SettlementRepository applies a settlement in a single transaction: the
// transfers, both team updates, the renewal obligations, and the proposal
// transition to completed commit together or not at all. Re-applying a
// settlement whose proposal has already completed is a no-op, so the retry
// loop above cannot double-spend.
type SettlementRepository struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) Apply(ctx context.Context, s trade.Settlement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const lockQuery = `
SELECT state, version
FROM trade_proposals
WHERE public_id = $1
FOR UPDATE`

	var row struct {
		State   string `db:"state"`
		Version int64  `db:"version"`
	}
	if err := tx.GetContext(ctx, &row, lockQuery, s.ProposalID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("settlement proposal %s not found", s.ProposalID)
		}
		return fmt.Errorf("lock settlement proposal: %w", err)
	}
	if trade.State(row.State) == trade.StateCompleted {
		return nil
	}
	if trade.State(row.State) != trade.StateSettling || row.Version != s.ProposalVersion {
		return fmt.Errorf("settlement proposal %s not in settling state at version %d", s.ProposalID, s.ProposalVersion)
	}

	const transferQuery = `
UPDATE players
SET owner_team_id = :to_team_id,
    contract_expiry = NULL,
    updated_at = NOW()
WHERE public_id = :public_id
  AND owner_team_id = :from_team_id
  AND deleted_at IS NULL`

	for _, transfer := range s.Transfers {
		transferSQL, transferArgs, err := sqlx.Named(transferQuery, map[string]any{
			"public_id":    transfer.PlayerID,
			"from_team_id": transfer.FromTeamID,
			"to_team_id":   transfer.ToTeamID,
		})
		if err != nil {
			return fmt.Errorf("bind transfer query for player=%s: %w", transfer.PlayerID, err)
		}
		transferSQL = tx.Rebind(transferSQL)

		result, err := tx.ExecContext(ctx, transferSQL, transferArgs...)
		if err != nil {
			return fmt.Errorf("transfer player=%s: %w", transfer.PlayerID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("read transfer result for player=%s: %w", transfer.PlayerID, err)
		}
		if affected != 1 {
			return fmt.Errorf("transfer player=%s: not owned by team %s", transfer.PlayerID, transfer.FromTeamID)
		}
	}

	const teamQuery = `
UPDATE teams
SET credits = :credits,
    roster_value = :roster_value,
    player_count = :player_count,
    updated_at = NOW()
WHERE public_id = :public_id
  AND deleted_at IS NULL`

	for _, update := range s.Teams {
		teamSQL, teamArgs, err := sqlx.Named(teamQuery, map[string]any{
			"public_id":    update.TeamID,
			"credits":      update.Credits,
			"roster_value": update.RosterValue,
			"player_count": update.PlayerCount,
		})
		if err != nil {
			return fmt.Errorf("bind team update query for team=%s: %w", update.TeamID, err)
		}
		teamSQL = tx.Rebind(teamSQL)

		result, err := tx.ExecContext(ctx, teamSQL, teamArgs...)
		if err != nil {
			return fmt.Errorf("update team=%s: %w", update.TeamID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("read team update result for team=%s: %w", update.TeamID, err)
		}
		if affected != 1 {
			return fmt.Errorf("update team=%s: team not found", update.TeamID)
		}
	}

	for _, spec := range s.Obligations {
		obligation := renewal.Obligation{
			ID:        spec.ObligationID,
			TeamID:    spec.TeamID,
			PlayerIDs: spec.PlayerIDs,
			State:     renewal.StatePending,
			CreatedAt: s.CompletedAt,
		}
		if err := saveObligation(ctx, tx, obligation); err != nil {
			return err
		}
	}

	completed, err := updateProposalStateCAS(ctx, tx, s.ProposalID, trade.StateSettling, trade.StateCompleted, s.ProposalVersion, "")
	if err != nil {
		return err
	}
	if !completed {
		return fmt.Errorf("settlement proposal %s completion lost its version race", s.ProposalID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement tx: %w", err)
	}

	return nil
}
