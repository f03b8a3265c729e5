package server

import (
	"encoding/json"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

// --- Response DTOs ---

type userResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type accountResponse struct {
	Points    int    `json:"points"`
	Level     int    `json:"level"`
	UpdatedAt string `json:"updatedAt"`
}

type sessionResponse struct {
	User    userResponse    `json:"user"`
	Account accountResponse `json:"account"`
}

type reportResponse struct {
	ReportID           string          `json:"reportId"`
	UserID             string          `json:"userId"`
	Location           string          `json:"location"`
	Category           string          `json:"category"`
	ItemType           string          `json:"itemType"`
	Amount             string          `json:"amount"`
	ImageURL           string          `json:"imageUrl,omitempty"`
	VerificationResult json.RawMessage `json:"verificationResult,omitempty"`
	Status             string          `json:"status"`
	CollectorID        string          `json:"collectorId,omitempty"`
	CreatedAt          string          `json:"createdAt"`
}

type reportReceiptResponse struct {
	Report          reportResponse  `json:"report"`
	Awarded         int             `json:"awarded"`
	EstimatedPoints int             `json:"estimatedPoints"`
	Account         accountResponse `json:"account"`
}

type analysisResponse struct {
	ItemType        string  `json:"itemType"`
	Quantity        string  `json:"quantity"`
	EstimatedValue  string  `json:"estimatedValue"`
	Confidence      float64 `json:"confidence"`
	EstimatedPoints int     `json:"estimatedPoints"`
}

type verifyResponse struct {
	Accepted     bool             `json:"accepted"`
	Report       reportResponse   `json:"report"`
	Confidence   float64          `json:"confidence"`
	Reason       string           `json:"reason,omitempty"`
	Verification json.RawMessage  `json:"verification,omitempty"`
	Awarded      int              `json:"awarded,omitempty"`
	Account      *accountResponse `json:"account,omitempty"`
}

type transactionResponse struct {
	TransactionID string `json:"transactionId"`
	Kind          string `json:"type"`
	Amount        int    `json:"amount"`
	Description   string `json:"description"`
	Date          string `json:"date"`
}

type balanceResponse struct {
	Balance int             `json:"balance"`
	Account accountResponse `json:"account"`
}

type prizeResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
}

type redeemResponse struct {
	Redeemed int             `json:"redeemed"`
	Account  accountResponse `json:"account"`
}

type leaderboardEntryResponse struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
}

type notificationResponse struct {
	NotificationID string `json:"notificationId"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	IsRead         bool   `json:"isRead"`
	CreatedAt      string `json:"createdAt"`
}

type placeResponse struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formattedAddress"`
}

type networkPeerResponse struct {
	UserID          string `json:"userId"`
	Name            string `json:"name"`
	Collections     int    `json:"collections"`
	LastCollectedAt string `json:"lastCollectedAt,omitempty"`
}

type networkResponse struct {
	UserID        string                `json:"userId"`
	CollectedFrom []networkPeerResponse `json:"collectedFrom"`
	CollectedBy   []networkPeerResponse `json:"collectedBy"`
}

type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toAccountResponse(a domain.RewardAccount) accountResponse {
	return accountResponse{
		Points:    a.Points,
		Level:     a.Level,
		UpdatedAt: formatTime(a.UpdatedAt),
	}
}

func toReportResponse(r domain.Report) reportResponse {
	return reportResponse{
		ReportID:           r.ID,
		UserID:             r.UserID,
		Location:           r.Location,
		Category:           string(r.Category),
		ItemType:           r.ItemType,
		Amount:             r.Amount,
		ImageURL:           r.ImageURL,
		VerificationResult: r.VerificationResult,
		Status:             string(r.Status),
		CollectorID:        r.CollectorID,
		CreatedAt:          formatTime(r.CreatedAt),
	}
}

func toTransactionResponse(tx domain.Transaction) transactionResponse {
	return transactionResponse{
		TransactionID: tx.ID,
		Kind:          string(tx.Kind),
		Amount:        tx.Amount,
		Description:   tx.Description,
		Date:          formatTime(tx.CreatedAt),
	}
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		NotificationID: n.ID,
		Message:        n.Message,
		Type:           n.Type,
		IsRead:         n.IsRead,
		CreatedAt:      formatTime(n.CreatedAt),
	}
}

func toNetworkResponse(n domain.UserNetwork) networkResponse {
	peers := func(in []domain.NetworkPeer) []networkPeerResponse {
		out := make([]networkPeerResponse, 0, len(in))
		for _, p := range in {
			out = append(out, networkPeerResponse{
				UserID:          p.UserID,
				Name:            p.Name,
				Collections:     p.Collections,
				LastCollectedAt: formatTime(p.LastCollectedAt),
			})
		}
		return out
	}
	return networkResponse{
		UserID:        n.UserID,
		CollectedFrom: peers(n.CollectedFrom),
		CollectedBy:   peers(n.CollectedBy),
	}
}
