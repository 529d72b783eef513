package scores

// Match is a provider-agnostic live or scheduled fixture.
type Match struct {
	ID        string `json:"id"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Status    string `json:"status"`
	Time      string `json:"time"`
	League    string `json:"league"`
	Date      string `json:"date"`
}

// State maps the provider status text onto the canonical lifecycle.
func (m Match) State() Status {
	return ParseStatus(m.Status)
}

// Valid reports whether the identifying fields are present.
func (m Match) Valid() bool {
	return m.ID != "" && m.HomeTeam != "" && m.AwayTeam != ""
}

// StandingRow is one team's line in a league table.
type StandingRow struct {
	Rank           int    `json:"rank"`
	Team           string `json:"team"`
	Logo           string `json:"logo"`
	Points         int    `json:"points"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
}

// Normalize recomputes derived columns. Upstream goal difference is never trusted.
func (r StandingRow) Normalize() StandingRow {
	r.GoalDifference = r.GoalsFor - r.GoalsAgainst
	return r
}

func (r StandingRow) Valid() bool {
	return r.Team != "" && r.Rank > 0
}
