package team

import "fmt"

// Team is a member-managed franchise holding credits and a roster.
// RosterValue and PlayerCount are derived from owned players and refreshed
// by the settlement path after every transfer.
type Team struct {
	ID          string
	Name        string
	Credits     int64
	RosterValue int64
	PlayerCount int
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Credits < 0 {
		return fmt.Errorf("team credits cannot be negative")
	}

	return nil
}
