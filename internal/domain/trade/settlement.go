package trade

import "time"

// PlayerTransfer moves one player between rosters. ContractExpiry is always
// cleared by a transfer; the receiving team renews the contract later.
type PlayerTransfer struct {
	PlayerID   string
	FromTeamID string
	ToTeamID   string
}

// TeamUpdate carries the post-settlement balance and derived roster figures
// for one side of the trade.
type TeamUpdate struct {
	TeamID      string
	Credits     int64
	RosterValue int64
	PlayerCount int
}

// ObligationSpec describes one renewal obligation to create: the receiving
// team and exactly the players it received.
type ObligationSpec struct {
	ObligationID string
	TeamID       string
	PlayerIDs    []string
}

// Settlement is the complete, precomputed effect of accepting a proposal.
// A settlement repository applies it as a single atomic unit; readers never
// observe a partially applied settlement.
type Settlement struct {
	ProposalID      string
	ProposalVersion int64
	Transfers       []PlayerTransfer
	Teams           []TeamUpdate
	Obligations     []ObligationSpec
	CompletedAt     time.Time
}
