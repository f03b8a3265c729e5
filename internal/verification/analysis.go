package verification

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Analysis is the classifier's description of a reported item.
type Analysis struct {
	ItemType       string  `json:"itemType"`
	Quantity       string  `json:"quantity"`
	EstimatedValue string  `json:"estimatedValue"`
	Confidence     float64 `json:"confidence"`
}

type analysisWire struct {
	ItemType       string  `json:"itemType"`
	ClothType      string  `json:"clothType"`
	Quantity       string  `json:"quantity"`
	EstimatedValue string  `json:"estimatedValue"`
	Confidence     float64 `json:"confidence"`
}

// ParseAnalysis decodes an analysis reply. Every field must be present and
// non-empty; a zero confidence counts as missing. Clothes replies may name
// the type under clothType.
func ParseAnalysis(text string) (Analysis, error) {
	body := stripFences(text)
	var wire analysisWire
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	a := Analysis{
		ItemType:       strings.TrimSpace(wire.ItemType),
		Quantity:       strings.TrimSpace(wire.Quantity),
		EstimatedValue: strings.TrimSpace(wire.EstimatedValue),
		Confidence:     wire.Confidence,
	}
	if a.ItemType == "" {
		a.ItemType = strings.TrimSpace(wire.ClothType)
	}

	switch {
	case a.ItemType == "":
		return Analysis{}, fmt.Errorf("%w: missing item type", ErrUnparseable)
	case a.Quantity == "":
		return Analysis{}, fmt.Errorf("%w: missing quantity", ErrUnparseable)
	case a.EstimatedValue == "":
		return Analysis{}, fmt.Errorf("%w: missing estimated value", ErrUnparseable)
	case a.Confidence == 0:
		return Analysis{}, fmt.Errorf("%w: missing confidence", ErrUnparseable)
	}
	return a, nil
}
