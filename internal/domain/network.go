package domain

import "time"

// NetworkPeer is a user connected to another through verified collections.
// LastCollectedAt is the most recent collection between the two users.
type NetworkPeer struct {
	UserID          string
	Name            string
	Collections     int
	LastCollectedAt time.Time
}

// UserNetwork groups the peers of a user in both collection directions.
type UserNetwork struct {
	UserID string

	// CollectedFrom lists reporters whose items the user collected.
	CollectedFrom []NetworkPeer
	// CollectedBy lists collectors who picked up the user's items.
	CollectedBy []NetworkPeer
}
