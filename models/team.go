package models

import "time"

type Team struct {
	ID       int    `json:"id" db:"id"`
	SeasonID int    `json:"season_id" db:"season_id"`
	Name     string `json:"name" db:"name"`

	// TeamUID is the stable identity a team keeps across seasons; a returning
	// team registers a new row per season under the same uid.
	TeamUID string `json:"team_uid" db:"team_uid"`

	// Registered is derived from the roster (paid+signed count), never set
	// directly by clients.
	Registered     bool       `json:"registered" db:"registered"`
	RegisteredDate *time.Time `json:"registered_date,omitempty" db:"registered_date"`

	Placement *int      `json:"placement,omitempty" db:"placement"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Roster []SeasonEntry `json:"roster,omitempty" db:"-"`
	Season *Season       `json:"season,omitempty" db:"-"`
}
