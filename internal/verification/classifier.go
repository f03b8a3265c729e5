package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

// ErrNoImage indicates a classification was requested without image bytes.
var ErrNoImage = errors.New("image is required")

// Image is inline image data sent to the model.
type Image struct {
	Data     []byte
	MIMEType string
}

// Model is a multimodal text generator.
type Model interface {
	Generate(ctx context.Context, prompt string, image Image) (string, error)
}

// Outcome is the result of checking collection evidence. Raw holds the
// classifier reply as JSON when it parsed, for storage on the collection.
type Outcome struct {
	Accepted bool
	Verdict  Verdict
	Raw      json.RawMessage
	Reason   string
}

// Classifier runs prompts against a Model and interprets the replies.
type Classifier struct {
	model     Model
	threshold float64
	timeout   time.Duration
	logger    *slog.Logger
}

// Option customises a Classifier.
type Option func(*Classifier)

// WithThreshold overrides the acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(c *Classifier) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Classifier) { c.timeout = timeout }
}

// WithLogger sets the classifier logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClassifier wraps model.
func NewClassifier(model Model, opts ...Option) *Classifier {
	c := &Classifier{
		model:     model,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify checks collection evidence against report. Model failures are
// returned as errors; replies that do not parse are a rejected outcome.
func (c *Classifier) Verify(ctx context.Context, report domain.Report, image Image) (Outcome, error) {
	if len(image.Data) == 0 {
		return Outcome{}, ErrNoImage
	}

	text, err := c.generate(ctx, VerificationPrompt(report), image)
	if err != nil {
		return Outcome{}, err
	}

	verdict, err := ParseVerdict(report.Category, text)
	if err != nil {
		c.logger.Warn("verification reply rejected", "report_id", report.ID, "category", report.Category, "error", err)
		return Outcome{Reason: "classifier reply could not be interpreted"}, nil
	}

	raw, err := json.Marshal(verdict)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode verdict: %w", err)
	}
	outcome := Outcome{
		Accepted: Accept(verdict, c.threshold),
		Verdict:  verdict,
		Raw:      raw,
	}
	if !outcome.Accepted {
		outcome.Reason = "evidence does not match the report"
	}
	return outcome, nil
}

// Analyze describes a reported item from its image.
func (c *Classifier) Analyze(ctx context.Context, category domain.Category, image Image) (Analysis, error) {
	if len(image.Data) == 0 {
		return Analysis{}, ErrNoImage
	}
	text, err := c.generate(ctx, AnalysisPrompt(category), image)
	if err != nil {
		return Analysis{}, err
	}
	return ParseAnalysis(text)
}

func (c *Classifier) generate(ctx context.Context, prompt string, image Image) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if image.MIMEType == "" {
		image.MIMEType = "image/jpeg"
	}
	text, err := c.model.Generate(ctx, prompt, image)
	if err != nil {
		return "", fmt.Errorf("classifier request: %w", err)
	}
	return text, nil
}

// ErrUnavailable is returned by UnavailableModel.
var ErrUnavailable = errors.New("classifier is not configured")

// UnavailableModel fails every request. It stands in when no API key is set.
type UnavailableModel struct{}

func (UnavailableModel) Generate(context.Context, string, Image) (string, error) {
	return "", ErrUnavailable
}
