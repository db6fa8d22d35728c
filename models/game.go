package models

import "time"

type Game struct {
	ID         int       `json:"id" db:"id"`
	SeasonID   int       `json:"season_id" db:"season_id"`
	HomeTeamID int       `json:"home_team_id" db:"home_team_id"`
	AwayTeamID int       `json:"away_team_id" db:"away_team_id"`
	HomeScore  *int      `json:"home_score,omitempty" db:"home_score"`
	AwayScore  *int      `json:"away_score,omitempty" db:"away_score"`
	GameTime   time.Time `json:"game_time" db:"game_time"`
	Field      string    `json:"field" db:"field"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Home *Team `json:"home,omitempty" db:"-"`
	Away *Team `json:"away,omitempty" db:"-"`
}

func (g *Game) Played() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}
