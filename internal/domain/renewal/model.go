package renewal

import (
	"fmt"
	"time"
)

type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
)

// Obligation records that a team must re-contract the players it received in
// a settlement before they can be traded again. It is created by the
// settlement path and consumed player by player through the renewal workflow.
type Obligation struct {
	ID               string
	TeamID           string
	PlayerIDs        []string
	RenewedPlayerIDs []string
	State            State
	CreatedAt        time.Time
}

func (o Obligation) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("obligation id is required")
	}
	if o.TeamID == "" {
		return fmt.Errorf("obligation team id is required")
	}
	if len(o.PlayerIDs) == 0 {
		return fmt.Errorf("obligation requires at least one player")
	}
	return nil
}

// Covers reports whether the obligation lists the given player.
func (o Obligation) Covers(playerID string) bool {
	for _, id := range o.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// Renewed reports whether the given player has already been renewed under
// this obligation.
func (o Obligation) Renewed(playerID string) bool {
	for _, id := range o.RenewedPlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// AllRenewed reports whether every listed player has been renewed.
func (o Obligation) AllRenewed() bool {
	for _, id := range o.PlayerIDs {
		if !o.Renewed(id) {
			return false
		}
	}
	return true
}
