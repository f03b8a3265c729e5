package generator

// Config drives the synthetic data generator.
type Config struct {
	NumUsers   int
	NumReports int
	// ClaimChance is the probability that a report is claimed by another
	// user during ingestion.
	ClaimChance float64
	// SharedLocationChance is the probability of reusing an earlier
	// location, which clusters reports around shared drop-off points.
	SharedLocationChance float64
	Seed                 int64
}

// DefaultConfig returns baseline settings for a demo dataset.
func DefaultConfig() Config {
	return Config{
		NumUsers:             200,
		NumReports:           1000,
		ClaimChance:          0.4,
		SharedLocationChance: 0.3,
		Seed:                 42,
	}
}
