package domain

import "time"

// RewardAccount caches a user's running point total for display. It is
// always rebuilt from the transaction log, never mutated on its own.
type RewardAccount struct {
	UserID    string
	Points    int
	Level     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaderboardEntry is a reward account joined with its owner's name.
type LeaderboardEntry struct {
	UserID   string
	UserName string
	Points   int
	Level    int
}

// Prize is a catalog item that can be bought with points.
type Prize struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Cost        int    `yaml:"cost"`
}

// RedeemAllPrizeID selects the "redeem every point" option.
const RedeemAllPrizeID = 0
