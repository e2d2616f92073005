package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fantamercato/trade-engine/internal/domain/trade"
)

type proposalTableModel struct {
	ID                 int64          `db:"id"`
	PublicID           string         `db:"public_id"`
	RequestingTeamID   string         `db:"requesting_team_id"`
	OpposingTeamID     string         `db:"opposing_team_id"`
	Kind               string         `db:"kind"`
	OfferedPlayerIDs   pq.StringArray `db:"offered_player_ids"`
	RequestedPlayerIDs pq.StringArray `db:"requested_player_ids"`
	RequestedPlayerID  *string        `db:"requested_player_id"`
	OfferedCredits     int64          `db:"offered_credits"`
	Clause             string         `db:"clause"`
	State              string         `db:"state"`
	FailureReason      string         `db:"failure_reason"`
	TermsKey           string         `db:"terms_key"`
	Version            int64          `db:"version"`
	CreatedAt          time.Time      `db:"created_at"`
	CompletedAt        *time.Time     `db:"completed_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (m proposalTableModel) toDomain() trade.Proposal {
	p := trade.Proposal{
		ID:                 m.PublicID,
		RequestingTeamID:   m.RequestingTeamID,
		OpposingTeamID:     m.OpposingTeamID,
		Kind:               trade.Kind(m.Kind),
		OfferedPlayerIDs:   []string(m.OfferedPlayerIDs),
		RequestedPlayerIDs: []string(m.RequestedPlayerIDs),
		OfferedCredits:     m.OfferedCredits,
		Clause:             m.Clause,
		State:              trade.State(m.State),
		FailureReason:      m.FailureReason,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
	}
	if m.RequestedPlayerID != nil {
		p.RequestedPlayerID = *m.RequestedPlayerID
	}
	if m.CompletedAt != nil {
		completedAt := *m.CompletedAt
		p.CompletedAt = &completedAt
	}
	return p
}

const proposalColumns = `id, public_id, requesting_team_id, opposing_team_id, kind, offered_player_ids, requested_player_ids, requested_player_id, offered_credits, clause, state, failure_reason, terms_key, version, created_at, completed_at, updated_at`

const activeStates = `('pending', 'admin_approved', 'settling')`

type ProposalRepository struct {
	db *sqlx.DB
}

func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) GetByID(ctx context.Context, proposalID string) (trade.Proposal, bool, error) {
	query := `
SELECT ` + proposalColumns + `
FROM trade_proposals
WHERE public_id = $1`

	var row proposalTableModel
	if err := r.db.GetContext(ctx, &row, query, proposalID); err != nil {
		if isNotFound(err) {
			return trade.Proposal{}, false, nil
		}
		return trade.Proposal{}, false, fmt.Errorf("get proposal: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ProposalRepository) ListByTeam(ctx context.Context, teamID string) ([]trade.Proposal, error) {
	query := `
SELECT ` + proposalColumns + `
FROM trade_proposals
WHERE requesting_team_id = $1
   OR opposing_team_id = $1
ORDER BY created_at, public_id`

	var rows []proposalTableModel
	if err := r.db.SelectContext(ctx, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("list proposals by team: %w", err)
	}

	proposals := make([]trade.Proposal, 0, len(rows))
	for _, row := range rows {
		proposals = append(proposals, row.toDomain())
	}

	return proposals, nil
}

func (r *ProposalRepository) FindActiveByTerms(ctx context.Context, termsKey string) (trade.Proposal, bool, error) {
	query := `
SELECT ` + proposalColumns + `
FROM trade_proposals
WHERE terms_key = $1
  AND state IN ` + activeStates + `
ORDER BY created_at
LIMIT 1`

	var row proposalTableModel
	if err := r.db.GetContext(ctx, &row, query, termsKey); err != nil {
		if isNotFound(err) {
			return trade.Proposal{}, false, nil
		}
		return trade.Proposal{}, false, fmt.Errorf("find active proposal by terms: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ProposalRepository) Create(ctx context.Context, p trade.Proposal) error {
	const query = `
INSERT INTO trade_proposals (
    public_id,
    requesting_team_id,
    opposing_team_id,
    kind,
    offered_player_ids,
    requested_player_ids,
    requested_player_id,
    offered_credits,
    clause,
    state,
    terms_key,
    version,
    created_at
) VALUES (
    :public_id,
    :requesting_team_id,
    :opposing_team_id,
    :kind,
    :offered_player_ids,
    :requested_player_ids,
    :requested_player_id,
    :offered_credits,
    :clause,
    :state,
    :terms_key,
    :version,
    :created_at
)`

	var requestedPlayerID *string
	if p.RequestedPlayerID != "" {
		requestedPlayerID = &p.RequestedPlayerID
	}
	offeredIDs := p.OfferedPlayerIDs
	if offeredIDs == nil {
		offeredIDs = []string{}
	}
	requestedIDs := p.RequestedPlayerIDs
	if requestedIDs == nil {
		requestedIDs = []string{}
	}
	args := map[string]any{
		"public_id":            p.ID,
		"requesting_team_id":   p.RequestingTeamID,
		"opposing_team_id":     p.OpposingTeamID,
		"kind":                 string(p.Kind),
		"offered_player_ids":   pq.StringArray(offeredIDs),
		"requested_player_ids": pq.StringArray(requestedIDs),
		"requested_player_id":  requestedPlayerID,
		"offered_credits":      p.OfferedCredits,
		"clause":               p.Clause,
		"state":                string(p.State),
		"terms_key":            p.TermsKey(),
		"version":              p.Version,
		"created_at":           p.CreatedAt,
	}
	createSQL, createArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind create proposal query: %w", err)
	}
	createSQL = r.db.Rebind(createSQL)
	if _, err := r.db.ExecContext(ctx, createSQL, createArgs...); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}

	return nil
}

func (r *ProposalRepository) UpdateStateCAS(ctx context.Context, proposalID string, from, to trade.State, expectedVersion int64, failureReason string) (bool, error) {
	if !trade.CanTransition(from, to) {
		return false, fmt.Errorf("illegal proposal transition %s -> %s", from, to)
	}

	return updateProposalStateCAS(ctx, r.db, proposalID, from, to, expectedVersion, failureReason)
}

// updateProposalStateCAS runs the guarded transition against any sqlx
// executor so the settlement transaction can reuse it.
func updateProposalStateCAS(ctx context.Context, ext sqlx.ExtContext, proposalID string, from, to trade.State, expectedVersion int64, failureReason string) (bool, error) {
	const query = `
UPDATE trade_proposals
SET state = :to_state,
    version = version + 1,
    failure_reason = :failure_reason,
    completed_at = CASE WHEN :to_state = 'completed' THEN NOW() ELSE completed_at END,
    updated_at = NOW()
WHERE public_id = :public_id
  AND state = :from_state
  AND version = :version`

	args := map[string]any{
		"public_id":      proposalID,
		"from_state":     string(from),
		"to_state":       string(to),
		"version":        expectedVersion,
		"failure_reason": failureReason,
	}
	casSQL, casArgs, err := sqlx.Named(query, args)
	if err != nil {
		return false, fmt.Errorf("bind proposal transition query: %w", err)
	}
	casSQL = ext.Rebind(casSQL)

	result, err := ext.ExecContext(ctx, casSQL, casArgs...)
	if err != nil {
		return false, fmt.Errorf("transition proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read proposal transition result: %w", err)
	}

	return affected == 1, nil
}
