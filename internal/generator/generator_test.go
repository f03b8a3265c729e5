package generator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/points"
	"github.com/vanshika/ecocycle/backend/internal/service"
)

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := Config{NumUsers: 20, NumReports: 50, ClaimChance: 0.5, SharedLocationChance: 0.3, Seed: 7}

	first, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	second, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("same seed produced different datasets (-first +second):\n%s", diff)
	}
}

func TestGenerateProducesValidReports(t *testing.T) {
	dataset, err := New(Config{NumUsers: 10, NumReports: 200, ClaimChance: 1, Seed: 3}).Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, dataset.Users, 10)
	require.Len(t, dataset.Reports, 200)

	emails := make(map[string]bool)
	for _, u := range dataset.Users {
		assert.False(t, emails[u.Email], "duplicate email %s", u.Email)
		emails[u.Email] = true
	}
	for _, r := range dataset.Reports {
		_, ok := domain.ParseCategory(r.Category)
		assert.True(t, ok, "category %q", r.Category)
		assert.True(t, emails[r.ReporterEmail])
		assert.NotEqual(t, r.ReporterEmail, r.CollectorEmail, "reports must not be self-collected")
		assert.NotEmpty(t, r.CollectorEmail)
		assert.Positive(t, points.Calculate(r.EstimatedValue), "estimate %q", r.EstimatedValue)
	}
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig()).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteDataset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "seed")
	dataset := Dataset{
		Users:   []service.UserSeed{{Email: "alice@example.com", Name: "Alice"}},
		Reports: []service.ReportSeed{{ReporterEmail: "alice@example.com", Location: "Kibera", ItemType: "shirts", Amount: "2 kg"}},
	}
	require.NoError(t, WriteDataset(dataset, dir))

	data, err := os.ReadFile(filepath.Join(dir, "reports.json"))
	require.NoError(t, err)
	var reports []service.ReportSeed
	require.NoError(t, json.Unmarshal(data, &reports))
	assert.Equal(t, dataset.Reports, reports)
	assert.FileExists(t, filepath.Join(dir, "users.json"))
}
