package trade

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind classifies what a proposal exchanges.
type Kind string

const (
	KindPlayersOnly        Kind = "players_only"
	KindCreditsOnly        Kind = "credits_only"
	KindPlayersPlusCredits Kind = "players_plus_credits"
)

var AllKinds = map[Kind]struct{}{
	KindPlayersOnly:        {},
	KindCreditsOnly:        {},
	KindPlayersPlusCredits: {},
}

// State is a proposal lifecycle stage. Transitions are forward-only:
// pending -> {admin_approved, rejected}, admin_approved -> settling,
// settling -> {completed, failed_settlement}. Nothing ever returns to an
// earlier stage.
type State string

const (
	StatePending          State = "pending"
	StateAdminApproved    State = "admin_approved"
	StateRejected         State = "rejected"
	StateSettling         State = "settling"
	StateCompleted        State = "completed"
	StateFailedSettlement State = "failed_settlement"
)

var allowedTransitions = map[State][]State{
	StatePending:       {StateAdminApproved, StateRejected},
	StateAdminApproved: {StateSettling},
	StateSettling:      {StateCompleted, StateFailedSettlement},
}

// CanTransition reports whether moving from one state to another is a legal
// forward step.
func CanTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a state admits no further transitions.
func (s State) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Active reports whether a proposal in this state still blocks an identical
// new submission between the same teams.
func (s State) Active() bool {
	return s == StatePending || s == StateAdminApproved || s == StateSettling
}

// Proposal is a submitted trade offer between two teams. The populated
// player fields depend on Kind: credits-only carries a single requested
// player id, the player kinds carry the offered/requested sets.
type Proposal struct {
	ID                 string
	RequestingTeamID   string
	OpposingTeamID     string
	Kind               Kind
	OfferedPlayerIDs   []string
	RequestedPlayerIDs []string
	RequestedPlayerID  string
	OfferedCredits     int64
	Clause             string
	State              State
	FailureReason      string
	Version            int64
	CreatedAt          time.Time
	CompletedAt        *time.Time
}

func (p Proposal) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("proposal id is required")
	}
	if p.RequestingTeamID == "" {
		return fmt.Errorf("requesting team id is required")
	}
	if p.OpposingTeamID == "" {
		return fmt.Errorf("opposing team id is required")
	}
	if p.RequestingTeamID == p.OpposingTeamID {
		return fmt.Errorf("a team cannot trade with itself")
	}
	if _, ok := AllKinds[p.Kind]; !ok {
		return fmt.Errorf("invalid proposal kind: %s", p.Kind)
	}
	if p.OfferedCredits < 0 {
		return fmt.Errorf("offered credits cannot be negative")
	}

	switch p.Kind {
	case KindCreditsOnly:
		if p.RequestedPlayerID == "" {
			return fmt.Errorf("credits-only proposal requires a requested player id")
		}
		if len(p.OfferedPlayerIDs) > 0 || len(p.RequestedPlayerIDs) > 0 {
			return fmt.Errorf("credits-only proposal cannot list player sets")
		}
		if p.OfferedCredits <= 0 {
			return fmt.Errorf("credits-only proposal requires offered credits")
		}
	case KindPlayersOnly, KindPlayersPlusCredits:
		if p.RequestedPlayerID != "" {
			return fmt.Errorf("player proposal cannot use the single requested player field")
		}
		if len(p.OfferedPlayerIDs) == 0 && len(p.RequestedPlayerIDs) == 0 {
			return fmt.Errorf("player proposal requires at least one player on either side")
		}
		if p.Kind == KindPlayersPlusCredits && p.OfferedCredits <= 0 {
			return fmt.Errorf("players-plus-credits proposal requires offered credits")
		}
		if p.Kind == KindPlayersOnly && p.OfferedCredits != 0 {
			return fmt.Errorf("players-only proposal cannot offer credits")
		}
	}

	if err := checkDistinct(p.OfferedPlayerIDs, "offered"); err != nil {
		return err
	}
	if err := checkDistinct(p.RequestedPlayerIDs, "requested"); err != nil {
		return err
	}
	for _, offered := range p.OfferedPlayerIDs {
		for _, requested := range p.RequestedPlayerIDs {
			if offered == requested {
				return fmt.Errorf("player %s appears on both sides of the trade", offered)
			}
		}
	}

	return nil
}

// TermsKey is a canonical fingerprint of the proposal's economic terms,
// used for duplicate-active detection. Two proposals between the same teams
// with the same kind, players, and credits share a key.
func (p Proposal) TermsKey() string {
	offered := append([]string(nil), p.OfferedPlayerIDs...)
	requested := append([]string(nil), p.RequestedPlayerIDs...)
	sort.Strings(offered)
	sort.Strings(requested)

	return strings.Join([]string{
		p.RequestingTeamID,
		p.OpposingTeamID,
		string(p.Kind),
		strings.Join(offered, ","),
		strings.Join(requested, ","),
		p.RequestedPlayerID,
		fmt.Sprintf("%d", p.OfferedCredits),
	}, "|")
}

func checkDistinct(ids []string, side string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%s player id cannot be empty", side)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate %s player id %s", side, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
