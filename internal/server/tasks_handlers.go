package server

import (
	"net/http"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

func (h *APIHandlers) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var (
		tasks []domain.Report
		err   error
	)
	switch query.Get("status") {
	case "":
		tasks, err = h.reports.ListCollectionTasks(r.Context(), user.ID, parseInt(query.Get("limit"), 0))
	case string(domain.StatusPending):
		tasks, err = h.reports.ListPending(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "unsupported status filter")
		return
	}
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	respondJSON(w, http.StatusOK, toReportList(tasks))
}

// handleTaskAction serves POST /tasks/{id}/claim and POST /tasks/{id}/verify.
func (h *APIHandlers) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	id, action := splitAction(r.URL.Path, "/tasks/")
	if id == "" || (action != "claim" && action != "verify") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}

	if action == "claim" {
		report, err := h.tasks.Claim(r.Context(), id, user.ID)
		if err != nil {
			h.fail(w, err, http.StatusInternalServerError, "failed to claim task")
			return
		}
		respondJSON(w, http.StatusOK, toReportResponse(report))
		return
	}

	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	result, err := h.tasks.VerifyCollection(r.Context(), id, user.ID, upload.Image)
	if err != nil {
		h.fail(w, err, http.StatusBadGateway, "failed to verify collection")
		return
	}

	resp := verifyResponse{
		Accepted:     result.Accepted,
		Report:       toReportResponse(result.Report),
		Reason:       result.Outcome.Reason,
		Verification: result.Outcome.Raw,
	}
	if result.Outcome.Verdict != nil {
		resp.Confidence = result.Outcome.Verdict.Score()
	}
	if result.Accepted {
		account := toAccountResponse(result.Account)
		resp.Awarded = result.Awarded
		resp.Account = &account
	}
	respondJSON(w, http.StatusOK, resp)
}
