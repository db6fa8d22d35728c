package models

import "time"

// OfferCreator says which side opened the offer: a captain inviting a
// player, or a player requesting to join.
type OfferCreator string

const (
	OfferByCaptain OfferCreator = "captain"
	OfferByPlayer  OfferCreator = "player"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Offer is a pending invite or join request. Only pending offers exist at
// rest; accepting or declining removes the row, so accepted/rejected are
// transient states on the way out of the store.
type Offer struct {
	ID       int          `json:"id" db:"id"`
	Creator  OfferCreator `json:"creator" db:"creator"`
	UserID   int          `json:"user_id" db:"user_id"`
	TeamID   int          `json:"team_id" db:"team_id"`
	SeasonID int          `json:"season_id" db:"season_id"`
	Status   OfferStatus  `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
	Team *Team `json:"team,omitempty" db:"-"`
}
