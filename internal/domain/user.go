package domain

import "time"

// User is a person who reports items, collects items, or both.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// DefaultUserName is assigned when a user is created without a display name.
const DefaultUserName = "Anonymous User"
