package memory

import (
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/stats"
	"github.com/fantamercato/trade-engine/internal/domain/team"
)

const (
	TeamIDAurora   = "team-aurora"
	TeamIDBorealis = "team-borealis"
	TeamIDCorsari  = "team-corsari"
	TeamIDDinamo   = "team-dinamo"
)

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: TeamIDAurora, Name: "Aurora FC", Credits: 100, RosterValue: 233, PlayerCount: 4},
		{ID: TeamIDBorealis, Name: "Borealis United", Credits: 85, RosterValue: 245, PlayerCount: 4},
		{ID: TeamIDCorsari, Name: "Corsari Neri", Credits: 140, RosterValue: 198, PlayerCount: 3},
		{ID: TeamIDDinamo, Name: "Dinamo Vallescura", Credits: 60, RosterValue: 261, PlayerCount: 4},
	}
}

func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: "pl-gk-01", Name: "Matteo Severini", Position: player.PositionGoalkeeper, CurrentValue: 48, BaseValue: 40, OwnerTeamID: TeamIDAurora},
		{ID: "pl-def-01", Name: "Iker Landa", Position: player.PositionDefender, CurrentValue: 52, BaseValue: 45, OwnerTeamID: TeamIDAurora},
		{ID: "pl-mid-01", Name: "Tomasz Wrona", Position: player.PositionMidfielder, CurrentValue: 68, BaseValue: 55, OwnerTeamID: TeamIDAurora},
		{ID: "pl-fwd-01", Name: "Luca Ferraresi", Position: player.PositionForward, CurrentValue: 65, BaseValue: 60, OwnerTeamID: TeamIDAurora},
		{ID: "pl-gk-02", Name: "Dragan Ilic", Position: player.PositionGoalkeeper, CurrentValue: 55, BaseValue: 50, OwnerTeamID: TeamIDBorealis},
		{ID: "pl-def-02", Name: "Rafael Couto", Position: player.PositionDefender, CurrentValue: 44, BaseValue: 40, OwnerTeamID: TeamIDBorealis},
		{ID: "pl-mid-02", Name: "Emil Haugen", Position: player.PositionMidfielder, CurrentValue: 71, BaseValue: 58, OwnerTeamID: TeamIDBorealis},
		{ID: "pl-fwd-02", Name: "Janik Brandt", Position: player.PositionForward, CurrentValue: 75, BaseValue: 62, OwnerTeamID: TeamIDBorealis},
		{ID: "pl-def-03", Name: "Sandro Quaranta", Position: player.PositionDefender, CurrentValue: 50, BaseValue: 44, OwnerTeamID: TeamIDCorsari},
		{ID: "pl-mid-03", Name: "Pavel Hradecky", Position: player.PositionMidfielder, CurrentValue: 66, BaseValue: 52, OwnerTeamID: TeamIDCorsari},
		{ID: "pl-fwd-03", Name: "Nicolo Staffieri", Position: player.PositionForward, CurrentValue: 82, BaseValue: 70, OwnerTeamID: TeamIDCorsari},
		{ID: "pl-gk-03", Name: "Yann Moreau", Position: player.PositionGoalkeeper, CurrentValue: 61, BaseValue: 55, OwnerTeamID: TeamIDDinamo},
		{ID: "pl-def-04", Name: "Aron Gudjohnsen", Position: player.PositionDefender, CurrentValue: 47, BaseValue: 42, OwnerTeamID: TeamIDDinamo},
		{ID: "pl-mid-04", Name: "Bruno Tessaro", Position: player.PositionMidfielder, CurrentValue: 73, BaseValue: 60, OwnerTeamID: TeamIDDinamo},
		{ID: "pl-fwd-04", Name: "Ciro Malafronte", Position: player.PositionForward, CurrentValue: 80, BaseValue: 68, OwnerTeamID: TeamIDDinamo},
		{ID: "pl-fwd-05", Name: "Oskar Lindqvist", Position: player.PositionForward, CurrentValue: 58, BaseValue: 58},
	}
}

func SeedStats() []stats.SeasonStats {
	return []stats.SeasonStats{
		{PlayerID: "pl-gk-01", Presences: 22, AvgRating: 6.3, PenaltiesSaved: 1, YellowCards: 1},
		{PlayerID: "pl-gk-02", Presences: 25, AvgRating: 6.6, PenaltiesSaved: 2},
		{PlayerID: "pl-gk-03", Presences: 24, AvgRating: 6.1, YellowCards: 2},
		{PlayerID: "pl-def-01", Presences: 20, Goals: 1, Assists: 2, YellowCards: 4},
		{PlayerID: "pl-def-02", Presences: 18, Assists: 1, YellowCards: 3, RedCards: 1},
		{PlayerID: "pl-def-03", Presences: 23, Goals: 2, YellowCards: 5},
		{PlayerID: "pl-def-04", Presences: 19, Assists: 3, YellowCards: 2},
		{PlayerID: "pl-mid-01", Presences: 26, Goals: 6, Assists: 5, YellowCards: 3},
		{PlayerID: "pl-mid-02", Presences: 24, Goals: 8, Assists: 4, YellowCards: 2},
		{PlayerID: "pl-mid-03", Presences: 21, Goals: 4, Assists: 6, YellowCards: 4},
		{PlayerID: "pl-mid-04", Presences: 25, Goals: 7, Assists: 3, YellowCards: 1},
		{PlayerID: "pl-fwd-01", Presences: 22, Goals: 11, Assists: 2, YellowCards: 2},
		{PlayerID: "pl-fwd-02", Presences: 26, Goals: 14, Assists: 3, YellowCards: 3},
		{PlayerID: "pl-fwd-03", Presences: 24, Goals: 16, Assists: 4, YellowCards: 2, RedCards: 1},
		{PlayerID: "pl-fwd-04", Presences: 23, Goals: 13, Assists: 5},
	}
}
