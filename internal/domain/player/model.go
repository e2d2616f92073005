package player

import (
	"fmt"
	"time"
)

// Position represents football position categories used in valuation rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// Player is a tradeable asset in the league ledger. An unrostered player
// (OwnerTeamID empty) has no running contract, so ContractExpiry must be nil;
// the reverse holds too.
type Player struct {
	ID             string
	Name           string
	Position       Position
	CurrentValue   int64
	BaseValue      int64
	OwnerTeamID    string
	ContractExpiry *time.Time
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if p.CurrentValue < 0 {
		return fmt.Errorf("player current value cannot be negative")
	}
	if p.BaseValue < 0 {
		return fmt.Errorf("player base value cannot be negative")
	}
	if err := p.CheckContractInvariant(); err != nil {
		return err
	}

	return nil
}

// CheckContractInvariant verifies the frozen-contract convention:
// a player has a contract expiry exactly when it has an owner.
func (p Player) CheckContractInvariant() error {
	if p.OwnerTeamID == "" && p.ContractExpiry != nil {
		return fmt.Errorf("unrostered player %s cannot have a contract expiry", p.ID)
	}
	return nil
}

func (p Player) Rostered() bool {
	return p.OwnerTeamID != ""
}
