package trade

import (
	"strings"
	"testing"
)

func validProposal() Proposal {
	return Proposal{
		ID:                 "prop-1",
		RequestingTeamID:   "team-a",
		OpposingTeamID:     "team-b",
		Kind:               KindPlayersOnly,
		OfferedPlayerIDs:   []string{"p-1"},
		RequestedPlayerIDs: []string{"p-2"},
		State:              StatePending,
		Version:            1,
	}
}

func TestProposalValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Proposal)
		wantErr string
	}{
		{
			name:   "valid players only",
			mutate: func(_ *Proposal) {},
		},
		{
			name: "valid credits only",
			mutate: func(p *Proposal) {
				p.Kind = KindCreditsOnly
				p.OfferedPlayerIDs = nil
				p.RequestedPlayerIDs = nil
				p.RequestedPlayerID = "p-2"
				p.OfferedCredits = 25
			},
		},
		{
			name: "valid players plus credits",
			mutate: func(p *Proposal) {
				p.Kind = KindPlayersPlusCredits
				p.OfferedCredits = 10
			},
		},
		{
			name:    "self trade",
			mutate:  func(p *Proposal) { p.OpposingTeamID = p.RequestingTeamID },
			wantErr: "cannot trade with itself",
		},
		{
			name:    "unknown kind",
			mutate:  func(p *Proposal) { p.Kind = Kind("barter") },
			wantErr: "invalid proposal kind",
		},
		{
			name:    "negative credits",
			mutate:  func(p *Proposal) { p.OfferedCredits = -5 },
			wantErr: "cannot be negative",
		},
		{
			name: "credits only without requested player",
			mutate: func(p *Proposal) {
				p.Kind = KindCreditsOnly
				p.OfferedPlayerIDs = nil
				p.RequestedPlayerIDs = nil
				p.OfferedCredits = 25
			},
			wantErr: "requires a requested player",
		},
		{
			name: "credits only with player sets",
			mutate: func(p *Proposal) {
				p.Kind = KindCreditsOnly
				p.RequestedPlayerID = "p-2"
				p.OfferedCredits = 25
			},
			wantErr: "cannot list player sets",
		},
		{
			name: "credits only without credits",
			mutate: func(p *Proposal) {
				p.Kind = KindCreditsOnly
				p.OfferedPlayerIDs = nil
				p.RequestedPlayerIDs = nil
				p.RequestedPlayerID = "p-2"
			},
			wantErr: "requires offered credits",
		},
		{
			name:    "players only with credits",
			mutate:  func(p *Proposal) { p.OfferedCredits = 10 },
			wantErr: "cannot offer credits",
		},
		{
			name: "players plus credits without credits",
			mutate: func(p *Proposal) {
				p.Kind = KindPlayersPlusCredits
			},
			wantErr: "requires offered credits",
		},
		{
			name: "no players on either side",
			mutate: func(p *Proposal) {
				p.OfferedPlayerIDs = nil
				p.RequestedPlayerIDs = nil
			},
			wantErr: "at least one player",
		},
		{
			name: "duplicate offered player",
			mutate: func(p *Proposal) {
				p.OfferedPlayerIDs = []string{"p-1", "p-1"}
			},
			wantErr: "duplicate offered player",
		},
		{
			name: "player on both sides",
			mutate: func(p *Proposal) {
				p.RequestedPlayerIDs = []string{"p-1"}
			},
			wantErr: "both sides",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			proposal := validProposal()
			tc.mutate(&proposal)

			err := proposal.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid proposal, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestStateTransitions(t *testing.T) {
	allowed := []struct{ from, to State }{
		{StatePending, StateAdminApproved},
		{StatePending, StateRejected},
		{StateAdminApproved, StateSettling},
		{StateSettling, StateCompleted},
		{StateSettling, StateFailedSettlement},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Fatalf("expected %s -> %s allowed", tr.from, tr.to)
		}
	}

	forbidden := []struct{ from, to State }{
		{StatePending, StateSettling},
		{StatePending, StateCompleted},
		{StateAdminApproved, StatePending},
		{StateAdminApproved, StateRejected},
		{StateRejected, StateAdminApproved},
		{StateCompleted, StateSettling},
		{StateFailedSettlement, StateSettling},
	}
	for _, tr := range forbidden {
		if CanTransition(tr.from, tr.to) {
			t.Fatalf("expected %s -> %s forbidden", tr.from, tr.to)
		}
	}

	for _, s := range []State{StateRejected, StateCompleted, StateFailedSettlement} {
		if !s.Terminal() {
			t.Fatalf("expected %s terminal", s)
		}
		if s.Active() {
			t.Fatalf("expected %s inactive", s)
		}
	}
	for _, s := range []State{StatePending, StateAdminApproved, StateSettling} {
		if s.Terminal() {
			t.Fatalf("expected %s non-terminal", s)
		}
		if !s.Active() {
			t.Fatalf("expected %s active", s)
		}
	}
}

func TestTermsKey(t *testing.T) {
	base := validProposal()

	reordered := validProposal()
	reordered.OfferedPlayerIDs = []string{"p-1", "p-3"}
	base.OfferedPlayerIDs = []string{"p-3", "p-1"}
	if base.TermsKey() != reordered.TermsKey() {
		t.Fatalf("expected player order not to change the terms key")
	}

	different := validProposal()
	different.RequestedPlayerIDs = []string{"p-4"}
	if validProposal().TermsKey() == different.TermsKey() {
		t.Fatalf("expected different players to change the terms key")
	}

	credits := validProposal()
	credits.Kind = KindPlayersPlusCredits
	credits.OfferedCredits = 10
	if validProposal().TermsKey() == credits.TermsKey() {
		t.Fatalf("expected credits to change the terms key")
	}
}
