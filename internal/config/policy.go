package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

// Policy holds the reward constants and the prize catalog.
type Policy struct {
	ReportAward         int            `yaml:"report_award"`
	CollectAwardMin     int            `yaml:"collect_award_min"`
	CollectAwardMax     int            `yaml:"collect_award_max"`
	ConfidenceThreshold float64        `yaml:"confidence_threshold"`
	PollInterval        time.Duration  `yaml:"poll_interval"`
	Prizes              []domain.Prize `yaml:"prizes"`
}

// DefaultPolicy returns the built-in reward constants with an empty catalog.
func DefaultPolicy() Policy {
	return Policy{
		ReportAward:         100,
		CollectAwardMin:     10,
		CollectAwardMax:     59,
		ConfidenceThreshold: 0.7,
		PollInterval:        2 * time.Second,
	}
}

// LoadPolicy reads a YAML policy file. Missing keys keep their defaults.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a YAML policy document.
func ParsePolicy(data []byte) (Policy, error) {
	policy := DefaultPolicy()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks the policy for values the services cannot honour.
func (p Policy) Validate() error {
	if p.ReportAward <= 0 {
		return fmt.Errorf("report_award must be positive")
	}
	if p.CollectAwardMin <= 0 || p.CollectAwardMax < p.CollectAwardMin {
		return fmt.Errorf("collect award range [%d,%d] is invalid", p.CollectAwardMin, p.CollectAwardMax)
	}
	if p.ConfidenceThreshold <= 0 || p.ConfidenceThreshold >= 1 {
		return fmt.Errorf("confidence_threshold must be in (0,1)")
	}
	if p.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	seen := make(map[int]bool, len(p.Prizes))
	for _, prize := range p.Prizes {
		if prize.ID == domain.RedeemAllPrizeID {
			return fmt.Errorf("prize id %d is reserved", domain.RedeemAllPrizeID)
		}
		if prize.Cost <= 0 {
			return fmt.Errorf("prize %d must have a positive cost", prize.ID)
		}
		if seen[prize.ID] {
			return fmt.Errorf("duplicate prize id %d", prize.ID)
		}
		seen[prize.ID] = true
	}
	return nil
}
