package service

// UserSeed is a user record loaded by the ingest command.
type UserSeed struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ReportSeed is a report loaded by the ingest command. A non-empty
// CollectorEmail claims the report for that user after submission.
type ReportSeed struct {
	ReporterEmail  string `json:"reporterEmail"`
	Location       string `json:"location"`
	Category       string `json:"category"`
	ItemType       string `json:"itemType"`
	Amount         string `json:"amount"`
	EstimatedValue string `json:"estimatedValue,omitempty"`
	CollectorEmail string `json:"collectorEmail,omitempty"`
}

func (s ReportSeed) toInput() ReportInput {
	return ReportInput{
		Email:          s.ReporterEmail,
		Location:       s.Location,
		Category:       s.Category,
		ItemType:       s.ItemType,
		Amount:         s.Amount,
		EstimatedValue: s.EstimatedValue,
	}
}
