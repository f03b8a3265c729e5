package server

import (
	"net/http"
)

func (h *APIHandlers) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	balance, err := h.ledger.ComputeBalance(r.Context(), user.ID)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to compute balance")
		return
	}
	account, err := h.ledger.Account(r.Context(), user.ID)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to load reward account")
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{
		Balance: balance,
		Account: toAccountResponse(account),
	})
}

func (h *APIHandlers) handleRewardTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	txs, err := h.ledger.Transactions(r.Context(), user.ID, parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	items := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		items = append(items, toTransactionResponse(tx))
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *APIHandlers) handlePrizes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	prizes, err := h.ledger.Prizes(r.Context(), user.ID)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to list prizes")
		return
	}
	items := make([]prizeResponse, 0, len(prizes))
	for _, p := range prizes {
		items = append(items, prizeResponse{ID: p.ID, Name: p.Name, Description: p.Description, Cost: p.Cost})
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *APIHandlers) handleRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload redeemRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	redeemed, account, err := h.ledger.RedeemPrize(r.Context(), user.ID, payload.PrizeID)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to redeem reward")
		return
	}
	respondJSON(w, http.StatusOK, redeemResponse{
		Redeemed: redeemed,
		Account:  toAccountResponse(account),
	})
}

type redeemRequest struct {
	PrizeID int `json:"prizeId"`
}
