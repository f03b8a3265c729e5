package server

import (
	"encoding/json"
	"net/http"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/service"
)

func (h *APIHandlers) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitReport(w, r)
	case http.MethodGet:
		h.listReports(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *APIHandlers) submitReport(w http.ResponseWriter, r *http.Request) {
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload reportRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.reports.Submit(r.Context(), service.ReportInput{
		Email:          user.Email,
		UserName:       user.Name,
		Location:       payload.Location,
		Category:       payload.Category,
		ItemType:       payload.ItemType,
		Amount:         payload.Amount,
		ImageURL:       payload.ImageURL,
		EstimatedValue: payload.EstimatedValue,
		Verification:   payload.VerificationResult,
	})
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to submit report")
		return
	}

	respondJSON(w, http.StatusCreated, reportReceiptResponse{
		Report:          toReportResponse(receipt.Report),
		Awarded:         receipt.Awarded,
		EstimatedPoints: receipt.EstimatedPoints,
		Account:         toAccountResponse(receipt.Account),
	})
}

func (h *APIHandlers) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListRecent(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to list reports")
		return
	}
	respondJSON(w, http.StatusOK, toReportList(reports))
}

func (h *APIHandlers) handleMyReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	reports, err := h.reports.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to list reports")
		return
	}
	respondJSON(w, http.StatusOK, toReportList(reports))
}

// handleAnalyze asks the classifier to describe an uploaded image before the
// report is filed. Nothing is stored.
func (h *APIHandlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if _, ok := h.actor(w, r); !ok {
		return
	}
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.reports.Analyze(r.Context(), upload.Category, upload.Image)
	if err != nil {
		h.fail(w, err, http.StatusBadGateway, "failed to analyze image")
		return
	}
	respondJSON(w, http.StatusOK, analysisResponse{
		ItemType:        result.Analysis.ItemType,
		Quantity:        result.Analysis.Quantity,
		EstimatedValue:  result.Analysis.EstimatedValue,
		Confidence:      result.Analysis.Confidence,
		EstimatedPoints: result.EstimatedPoints,
	})
}

func toReportList(reports []domain.Report) map[string]any {
	items := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		items = append(items, toReportResponse(rep))
	}
	return map[string]any{"items": items}
}

type reportRequest struct {
	Location           string          `json:"location"`
	Category           string          `json:"category"`
	ItemType           string          `json:"itemType"`
	Amount             string          `json:"amount"`
	ImageURL           string          `json:"imageUrl"`
	EstimatedValue     string          `json:"estimatedValue"`
	VerificationResult json.RawMessage `json:"verificationResult"`
}
