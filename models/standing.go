package models

// TeamStanding is computed from played games, never stored.
type TeamStanding struct {
	TeamID          int    `json:"team_id"`
	TeamName        string `json:"team_name"`
	GamesPlayed     int    `json:"games_played"`
	Wins            int    `json:"wins"`
	Draws           int    `json:"draws"`
	Losses          int    `json:"losses"`
	Points          int    `json:"points"`
	ScoreFor        int    `json:"score_for"`
	ScoreAgainst    int    `json:"score_against"`
	ScoreDifference int    `json:"score_difference"`
	Rank            int    `json:"rank"`
}

type DashboardStats struct {
	UsersTotal      int `json:"users_total"`
	SeasonsTotal    int `json:"seasons_total"`
	TeamsTotal      int `json:"teams_total"`
	RegisteredTeams int `json:"registered_teams"`
	GamesPlayed     int `json:"games_played"`
	PendingOffers   int `json:"pending_offers"`
}
