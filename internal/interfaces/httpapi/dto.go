package httpapi

import (
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/renewal"
	"github.com/fantamercato/trade-engine/internal/domain/team"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

type proposalDTO struct {
	ID                 string     `json:"id"`
	RequestingTeamID   string     `json:"requesting_team_id"`
	OpposingTeamID     string     `json:"opposing_team_id"`
	Kind               string     `json:"kind"`
	OfferedPlayerIDs   []string   `json:"offered_player_ids"`
	RequestedPlayerIDs []string   `json:"requested_player_ids"`
	RequestedPlayerID  string     `json:"requested_player_id,omitempty"`
	OfferedCredits     int64      `json:"offered_credits"`
	Clause             string     `json:"clause,omitempty"`
	State              string     `json:"state"`
	FailureReason      string     `json:"failure_reason,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func proposalToDTO(p trade.Proposal) proposalDTO {
	return proposalDTO{
		ID:                 p.ID,
		RequestingTeamID:   p.RequestingTeamID,
		OpposingTeamID:     p.OpposingTeamID,
		Kind:               string(p.Kind),
		OfferedPlayerIDs:   emptyIfNil(p.OfferedPlayerIDs),
		RequestedPlayerIDs: emptyIfNil(p.RequestedPlayerIDs),
		RequestedPlayerID:  p.RequestedPlayerID,
		OfferedCredits:     p.OfferedCredits,
		Clause:             p.Clause,
		State:              string(p.State),
		FailureReason:      p.FailureReason,
		Version:            p.Version,
		CreatedAt:          p.CreatedAt,
		CompletedAt:        p.CompletedAt,
	}
}

func proposalsToDTO(items []trade.Proposal) []proposalDTO {
	out := make([]proposalDTO, 0, len(items))
	for _, item := range items {
		out = append(out, proposalToDTO(item))
	}
	return out
}

type teamDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Credits     int64  `json:"credits"`
	RosterValue int64  `json:"roster_value"`
	PlayerCount int    `json:"player_count"`
}

func teamToDTO(t team.Team) teamDTO {
	return teamDTO{
		ID:          t.ID,
		Name:        t.Name,
		Credits:     t.Credits,
		RosterValue: t.RosterValue,
		PlayerCount: t.PlayerCount,
	}
}

func teamsToDTO(items []team.Team) []teamDTO {
	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamToDTO(item))
	}
	return out
}

type playerDTO struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Position       string     `json:"position"`
	CurrentValue   int64      `json:"current_value"`
	BaseValue      int64      `json:"base_value"`
	OwnerTeamID    string     `json:"owner_team_id,omitempty"`
	ContractExpiry *time.Time `json:"contract_expiry,omitempty"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:             p.ID,
		Name:           p.Name,
		Position:       string(p.Position),
		CurrentValue:   p.CurrentValue,
		BaseValue:      p.BaseValue,
		OwnerTeamID:    p.OwnerTeamID,
		ContractExpiry: p.ContractExpiry,
	}
}

type rosterDTO struct {
	Team    teamDTO     `json:"team"`
	Players []playerDTO `json:"players"`
}

func rosterToDTO(r usecase.TeamRoster) rosterDTO {
	players := make([]playerDTO, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, playerToDTO(p))
	}
	return rosterDTO{
		Team:    teamToDTO(r.Team),
		Players: players,
	}
}

type windowDTO struct {
	Kind             string     `json:"kind"`
	IsOpen           bool       `json:"is_open"`
	ScheduledOpenAt  *time.Time `json:"scheduled_open_at,omitempty"`
	ScheduledCloseAt *time.Time `json:"scheduled_close_at,omitempty"`
	LastNotifiedAt   *time.Time `json:"last_notified_at,omitempty"`
	Version          int64      `json:"version"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func windowToDTO(w market.Window) windowDTO {
	return windowDTO{
		Kind:             string(w.Kind),
		IsOpen:           w.IsOpen,
		ScheduledOpenAt:  w.ScheduledOpenAt,
		ScheduledCloseAt: w.ScheduledCloseAt,
		LastNotifiedAt:   w.LastNotifiedAt,
		Version:          w.Version,
		UpdatedAt:        w.UpdatedAt,
	}
}

type obligationDTO struct {
	ID               string    `json:"id"`
	TeamID           string    `json:"team_id"`
	PlayerIDs        []string  `json:"player_ids"`
	RenewedPlayerIDs []string  `json:"renewed_player_ids"`
	State            string    `json:"state"`
	CreatedAt        time.Time `json:"created_at"`
}

func obligationsToDTO(items []renewal.Obligation) []obligationDTO {
	out := make([]obligationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, obligationDTO{
			ID:               item.ID,
			TeamID:           item.TeamID,
			PlayerIDs:        emptyIfNil(item.PlayerIDs),
			RenewedPlayerIDs: emptyIfNil(item.RenewedPlayerIDs),
			State:            string(item.State),
			CreatedAt:        item.CreatedAt,
		})
	}
	return out
}

type auditEventDTO struct {
	EventID    string         `json:"event_id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	Outcome    string         `json:"outcome"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	TraceID    string         `json:"trace_id,omitempty"`
	SpanID     string         `json:"span_id,omitempty"`
}

func auditEventsToDTO(items []audit.Event) []auditEventDTO {
	out := make([]auditEventDTO, 0, len(items))
	for _, item := range items {
		out = append(out, auditEventDTO{
			EventID:    item.EventID,
			Action:     item.Action,
			Actor:      item.Actor,
			EntityKind: item.EntityKind,
			EntityID:   item.EntityID,
			Outcome:    string(item.Outcome),
			Detail:     item.Detail,
			OccurredAt: item.OccurredAt,
			TraceID:    item.TraceID,
			SpanID:     item.SpanID,
		})
	}
	return out
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
