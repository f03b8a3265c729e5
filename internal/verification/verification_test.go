package verification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeModel) Generate(_ context.Context, prompt string, image Image) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestParseVerdictPerCategory(t *testing.T) {
	cases := []struct {
		category domain.Category
		body     string
		want     Verdict
	}{
		{domain.CategoryClothes, `{"clothTypeMatch":true,"quantityMatch":true,"confidence":0.85}`, ClothesVerdict{true, true, 0.85}},
		{domain.CategoryAppliances, `{"applianceTypeMatch":true,"conditionMatch":false,"confidence":0.9}`, ApplianceVerdict{true, false, 0.9}},
		{domain.CategoryElectronics, `{"deviceTypeMatch":false,"quantityMatch":true,"confidence":0.4}`, ElectronicsVerdict{false, true, 0.4}},
		{domain.CategoryBooksPaper, `{"materialMatch":true,"weightMatch":true,"confidence":0.71}`, BooksPaperVerdict{true, true, 0.71}},
		{domain.CategoryFurniture, `{"furnitureTypeMatch":true,"conditionMatch":true,"confidence":1}`, FurnitureVerdict{true, true, 1}},
	}
	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			got, err := ParseVerdict(tc.category, tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.category, got.Category())
		})
	}
}

func TestParseVerdictStripsFences(t *testing.T) {
	text := "```json\n{\"clothTypeMatch\":true,\"quantityMatch\":true,\"confidence\":0.8}\n```"
	v, err := ParseVerdict(domain.CategoryClothes, text)
	require.NoError(t, err)
	assert.True(t, Accept(v, DefaultThreshold))
}

func TestParseVerdictRejectsForeignShape(t *testing.T) {
	_, err := ParseVerdict(domain.CategoryFurniture, `{"clothTypeMatch":true,"quantityMatch":true,"confidence":0.9}`)
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseVerdict(domain.CategoryClothes, "no json here")
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseVerdict(domain.CategoryClothes, "")
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestAcceptGate(t *testing.T) {
	cases := []struct {
		name string
		v    Verdict
		want bool
	}{
		{"all pass", ClothesVerdict{true, true, 0.85}, true},
		{"threshold is exclusive", ClothesVerdict{true, true, 0.7}, false},
		{"type mismatch", ClothesVerdict{false, true, 0.99}, false},
		{"amount mismatch", FurnitureVerdict{true, false, 0.99}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := Accept(tc.v, DefaultThreshold); got != tc.want {
			t.Fatalf("%s: Accept = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseAnalysis(t *testing.T) {
	a, err := ParseAnalysis("```json\n{\"clothType\":\"cotton\",\"quantity\":\"5 kg\",\"estimatedValue\":\"Approximately 1000-2000 KSH\",\"confidence\":0.9}\n```")
	require.NoError(t, err)
	assert.Equal(t, Analysis{ItemType: "cotton", Quantity: "5 kg", EstimatedValue: "Approximately 1000-2000 KSH", Confidence: 0.9}, a)

	_, err = ParseAnalysis(`{"itemType":"sofa","quantity":"1","confidence":0.9}`)
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseAnalysis(`{"itemType":"sofa","quantity":"1","estimatedValue":"x","confidence":0}`)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestClassifierVerify(t *testing.T) {
	report := domain.Report{ID: "r1", Category: domain.CategoryClothes, ItemType: "cotton", Amount: "5 kg"}
	image := Image{Data: []byte{0xff, 0xd8}}

	model := &fakeModel{reply: `{"clothTypeMatch":true,"quantityMatch":true,"confidence":0.85}`}
	outcome, err := NewClassifier(model).Verify(context.Background(), report, image)
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.JSONEq(t, `{"clothTypeMatch":true,"quantityMatch":true,"confidence":0.85}`, string(outcome.Raw))
	require.Len(t, model.prompts, 1)
	assert.True(t, strings.Contains(model.prompts[0], "cotton"))

	model.reply = "I think these are shirts"
	outcome, err = NewClassifier(model).Verify(context.Background(), report, image)
	require.NoError(t, err, "unparseable reply is a failed verification, not an error")
	assert.False(t, outcome.Accepted)
	assert.Nil(t, outcome.Verdict)

	model.reply = `{"clothTypeMatch":true,"quantityMatch":true,"confidence":0.6}`
	outcome, err = NewClassifier(model, WithThreshold(0.5)).Verify(context.Background(), report, image)
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
}

func TestClassifierVerifyErrors(t *testing.T) {
	report := domain.Report{ID: "r1", Category: domain.CategoryClothes}

	_, err := NewClassifier(&fakeModel{}).Verify(context.Background(), report, Image{})
	assert.ErrorIs(t, err, ErrNoImage)

	boom := errors.New("boom")
	_, err = NewClassifier(&fakeModel{err: boom}).Verify(context.Background(), report, Image{Data: []byte{1}})
	assert.ErrorIs(t, err, boom)

	_, err = NewClassifier(UnavailableModel{}).Analyze(context.Background(), domain.CategoryClothes, Image{Data: []byte{1}})
	assert.ErrorIs(t, err, ErrUnavailable)
}
