// Package verification turns free-text classifier output into typed
// judgments. Each item category has its own judgment shape; all of them
// reduce to two match flags and a confidence score.
package verification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

// DefaultThreshold is the confidence a judgment must exceed to be accepted.
const DefaultThreshold = 0.7

// ErrUnparseable marks classifier output that is not the expected structure.
var ErrUnparseable = errors.New("classifier output is not a valid judgment")

// Verdict is the category-specific judgment of collection evidence.
// Implementations are limited to the types in this package.
type Verdict interface {
	Category() domain.Category
	// Matches returns the type flag and the quantity (or analogous) flag.
	Matches() (kind bool, amount bool)
	Score() float64
	verdict()
}

// ClothesVerdict judges a clothes pick-up.
type ClothesVerdict struct {
	ClothTypeMatch bool    `json:"clothTypeMatch"`
	QuantityMatch  bool    `json:"quantityMatch"`
	Confidence     float64 `json:"confidence"`
}

// ApplianceVerdict judges an appliance pick-up.
type ApplianceVerdict struct {
	ApplianceTypeMatch bool    `json:"applianceTypeMatch"`
	ConditionMatch     bool    `json:"conditionMatch"`
	Confidence         float64 `json:"confidence"`
}

// ElectronicsVerdict judges an electronics pick-up.
type ElectronicsVerdict struct {
	DeviceTypeMatch bool    `json:"deviceTypeMatch"`
	QuantityMatch   bool    `json:"quantityMatch"`
	Confidence      float64 `json:"confidence"`
}

// BooksPaperVerdict judges a books and paper pick-up.
type BooksPaperVerdict struct {
	MaterialMatch bool    `json:"materialMatch"`
	WeightMatch   bool    `json:"weightMatch"`
	Confidence    float64 `json:"confidence"`
}

// FurnitureVerdict judges a furniture pick-up.
type FurnitureVerdict struct {
	FurnitureTypeMatch bool    `json:"furnitureTypeMatch"`
	ConditionMatch     bool    `json:"conditionMatch"`
	Confidence         float64 `json:"confidence"`
}

func (ClothesVerdict) Category() domain.Category     { return domain.CategoryClothes }
func (ApplianceVerdict) Category() domain.Category   { return domain.CategoryAppliances }
func (ElectronicsVerdict) Category() domain.Category { return domain.CategoryElectronics }
func (BooksPaperVerdict) Category() domain.Category  { return domain.CategoryBooksPaper }
func (FurnitureVerdict) Category() domain.Category   { return domain.CategoryFurniture }

func (v ClothesVerdict) Matches() (bool, bool)     { return v.ClothTypeMatch, v.QuantityMatch }
func (v ApplianceVerdict) Matches() (bool, bool)   { return v.ApplianceTypeMatch, v.ConditionMatch }
func (v ElectronicsVerdict) Matches() (bool, bool) { return v.DeviceTypeMatch, v.QuantityMatch }
func (v BooksPaperVerdict) Matches() (bool, bool)  { return v.MaterialMatch, v.WeightMatch }
func (v FurnitureVerdict) Matches() (bool, bool)   { return v.FurnitureTypeMatch, v.ConditionMatch }

func (v ClothesVerdict) Score() float64     { return v.Confidence }
func (v ApplianceVerdict) Score() float64   { return v.Confidence }
func (v ElectronicsVerdict) Score() float64 { return v.Confidence }
func (v BooksPaperVerdict) Score() float64  { return v.Confidence }
func (v FurnitureVerdict) Score() float64   { return v.Confidence }

func (ClothesVerdict) verdict()     {}
func (ApplianceVerdict) verdict()   {}
func (ElectronicsVerdict) verdict() {}
func (BooksPaperVerdict) verdict()  {}
func (FurnitureVerdict) verdict()   {}

// Accept reports whether v passes the gate: both flags set and confidence
// strictly above threshold.
func Accept(v Verdict, threshold float64) bool {
	if v == nil {
		return false
	}
	kind, amount := v.Matches()
	return kind && amount && v.Score() > threshold
}

// ParseVerdict decodes classifier text into the verdict type of category.
// Text wrapped in markdown code fences is unwrapped first.
func ParseVerdict(category domain.Category, text string) (Verdict, error) {
	body := stripFences(text)
	if body == "" {
		return nil, ErrUnparseable
	}

	switch category {
	case domain.CategoryClothes, "":
		return decode[ClothesVerdict](body, "clothTypeMatch", "quantityMatch")
	case domain.CategoryAppliances:
		return decode[ApplianceVerdict](body, "applianceTypeMatch", "conditionMatch")
	case domain.CategoryElectronics:
		return decode[ElectronicsVerdict](body, "deviceTypeMatch", "quantityMatch")
	case domain.CategoryBooksPaper:
		return decode[BooksPaperVerdict](body, "materialMatch", "weightMatch")
	case domain.CategoryFurniture:
		return decode[FurnitureVerdict](body, "furnitureTypeMatch", "conditionMatch")
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

type verdictType interface {
	ClothesVerdict | ApplianceVerdict | ElectronicsVerdict | BooksPaperVerdict | FurnitureVerdict
	Verdict
}

// decode requires every listed key plus confidence, so a reply for a
// different category does not silently decode to all-false flags.
func decode[T verdictType](body string, keys ...string) (Verdict, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	for _, key := range append(keys, "confidence") {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrUnparseable, key)
		}
	}

	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return v, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
