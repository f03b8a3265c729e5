package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REWARDS_POLICY_FILE", "")
	t.Setenv("CLASSIFIER_TIMEOUT", "")
	t.Setenv("SERVER_IDENTITY_HEADER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, defaultIdentityHeader, cfg.HTTP.IdentityHeader)
	assert.Equal(t, defaultClassifierTimeout, cfg.Classifier.Timeout)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, DefaultPolicy(), cfg.Policy)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_WRITE_TIMEOUT", "45s")
	t.Setenv("CLASSIFIER_TIMEOUT", "3s")
	t.Setenv("DATABASE_URL", "postgres://localhost/ecocycle")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 45*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, "postgres://localhost/ecocycle", cfg.Database.URL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("CLASSIFIER_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	doc := `
report_award: 120
poll_interval: 5s
prizes:
  - id: 1
    name: Tote bag
    description: Reusable cotton tote
    cost: 500
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("REWARDS_POLICY_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Policy.ReportAward)
	assert.Equal(t, 10, cfg.Policy.CollectAwardMin, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Policy.PollInterval)
	require.Len(t, cfg.Policy.Prizes, 1)
	assert.Equal(t, "Tote bag", cfg.Policy.Prizes[0].Name)
}

func TestParsePolicyValidation(t *testing.T) {
	cases := map[string]string{
		"reserved id":    "prizes:\n  - {id: 0, name: x, cost: 1}\n",
		"duplicate id":   "prizes:\n  - {id: 1, name: x, cost: 1}\n  - {id: 1, name: y, cost: 2}\n",
		"free prize":     "prizes:\n  - {id: 2, name: x, cost: 0}\n",
		"bad range":      "collect_award_min: 50\ncollect_award_max: 10\n",
		"bad threshold":  "confidence_threshold: 1.5\n",
		"zero threshold": "confidence_threshold: 0\n",
		"zero report":    "report_award: 0\n",
		"zero collect":   "collect_award_min: 0\n",
		"zero poll":      "poll_interval: 0s\n",
		"unknown key":    "bonus: 5\n",
	}
	for name, doc := range cases {
		if _, err := ParsePolicy([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	policy, err := ParsePolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)
}
