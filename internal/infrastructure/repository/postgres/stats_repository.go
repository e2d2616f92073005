package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fantamercato/trade-engine/internal/domain/stats"
)

type seasonStatsTableModel struct {
	PlayerID       string  `db:"player_id"`
	Presences      int     `db:"presences"`
	Goals          int     `db:"goals"`
	Assists        float64 `db:"assists"`
	YellowCards    int     `db:"yellow_cards"`
	RedCards       int     `db:"red_cards"`
	AvgRating      float64 `db:"avg_rating"`
	PenaltiesSaved int     `db:"penalties_saved"`
}

func (m seasonStatsTableModel) toDomain() stats.SeasonStats {
	return stats.SeasonStats{
		PlayerID:       m.PlayerID,
		Presences:      m.Presences,
		Goals:          m.Goals,
		Assists:        m.Assists,
		YellowCards:    m.YellowCards,
		RedCards:       m.RedCards,
		AvgRating:      m.AvgRating,
		PenaltiesSaved: m.PenaltiesSaved,
	}
}

const seasonStatsColumns = `player_id, presences, goals, assists, yellow_cards, red_cards, avg_rating, penalties_saved`

type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) GetByPlayer(ctx context.Context, playerID string) (stats.SeasonStats, bool, error) {
	query := `
SELECT ` + seasonStatsColumns + `
FROM season_stats
WHERE player_id = $1`

	var row seasonStatsTableModel
	if err := r.db.GetContext(ctx, &row, query, playerID); err != nil {
		if isNotFound(err) {
			return stats.SeasonStats{}, false, nil
		}
		return stats.SeasonStats{}, false, fmt.Errorf("get season stats: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *StatsRepository) GetByPlayers(ctx context.Context, playerIDs []string) (map[string]stats.SeasonStats, error) {
	if len(playerIDs) == 0 {
		return map[string]stats.SeasonStats{}, nil
	}

	query := `
SELECT ` + seasonStatsColumns + `
FROM season_stats
WHERE player_id = ANY($1)`

	var rows []seasonStatsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(playerIDs)); err != nil {
		return nil, fmt.Errorf("get season stats by players: %w", err)
	}

	out := make(map[string]stats.SeasonStats, len(rows))
	for _, row := range rows {
		out[row.PlayerID] = row.toDomain()
	}

	return out, nil
}
