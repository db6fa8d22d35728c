package models

import "time"

// SeasonEntry is a player's state for one season. TeamID nil means the
// player is unrostered. The unique (user_id, season_id) key makes
// "at most one team per player per season" structural.
type SeasonEntry struct {
	ID       int  `json:"id" db:"id"`
	UserID   int  `json:"user_id" db:"user_id"`
	SeasonID int  `json:"season_id" db:"season_id"`
	TeamID   *int `json:"team_id,omitempty" db:"team_id"`
	Captain  bool `json:"captain" db:"captain"`
	Paid     bool `json:"paid" db:"paid"`
	Signed   bool `json:"signed" db:"signed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
