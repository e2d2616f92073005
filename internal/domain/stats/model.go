package stats

// SeasonStats carries one player's accumulated season figures, the inputs of
// the valuation formula.
type SeasonStats struct {
	PlayerID       string
	Presences      int
	Goals          int
	Assists        float64
	YellowCards    int
	RedCards       int
	AvgRating      float64
	PenaltiesSaved int
}
