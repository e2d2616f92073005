package member

import "fmt"

// Principal identifies an authenticated league member. TeamID is the team
// the member manages; admins carry league-wide privileges.
type Principal struct {
	MemberID string
	TeamID   string
	Admin    bool
}

func (p Principal) Validate() error {
	if p.MemberID == "" {
		return fmt.Errorf("member id is required")
	}
	return nil
}
