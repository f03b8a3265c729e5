package domain

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle state of a reported item.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	// StatusCompleted is kept so stored rows carrying it still decode. No
	// transition produces it.
	StatusCompleted TaskStatus = "completed"
	StatusVerified  TaskStatus = "verified"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusVerified:
		return true
	}
	return false
}

// CanTransition reports whether the task state machine allows moving from s to next.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusVerified
	}
	return false
}

// Category identifies the kind of recyclable item.
type Category string

const (
	CategoryClothes     Category = "clothes"
	CategoryAppliances  Category = "appliances"
	CategoryElectronics Category = "electronics"
	CategoryBooksPaper  Category = "books_paper"
	CategoryFurniture   Category = "furniture"
)

// Categories lists every supported category.
var Categories = []Category{
	CategoryClothes,
	CategoryAppliances,
	CategoryElectronics,
	CategoryBooksPaper,
	CategoryFurniture,
}

// Label is the human-readable name used in ledger descriptions and messages.
func (c Category) Label() string {
	switch c {
	case CategoryBooksPaper:
		return "books and paper"
	case "":
		return string(CategoryClothes)
	default:
		return string(c)
	}
}

// ParseCategory maps free text to a Category, defaulting to clothes when empty.
func ParseCategory(raw string) (Category, bool) {
	if raw == "" {
		return CategoryClothes, true
	}
	for _, c := range Categories {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

// Report is a single reported recyclable item and its collection task.
type Report struct {
	ID                 string
	UserID             string
	Location           string
	Category           Category
	ItemType           string
	Amount             string
	ImageURL           string
	VerificationResult json.RawMessage
	Status             TaskStatus
	CollectorID        string
	CreatedAt          time.Time
}

// CollectedItem links a verified report to the collector who picked it up.
type CollectedItem struct {
	ID                 string
	ReportID           string
	CollectorID        string
	Status             TaskStatus
	VerificationResult json.RawMessage
	CollectedAt        time.Time
}
