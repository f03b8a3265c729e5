package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/geocode"
	"github.com/vanshika/ecocycle/backend/internal/identity"
	"github.com/vanshika/ecocycle/backend/internal/network"
	"github.com/vanshika/ecocycle/backend/internal/repository"
	"github.com/vanshika/ecocycle/backend/internal/service"
	"github.com/vanshika/ecocycle/backend/internal/verification"
)

const defaultMaxUploadBytes = 10 << 20

// PlaceSearcher resolves free-text locations.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]geocode.Place, error)
}

// NetworkReader returns a user's collection network.
type NetworkReader interface {
	UserNetwork(ctx context.Context, userID string) (domain.UserNetwork, error)
}

// APIDependencies collects the services behind the REST API.
type APIDependencies struct {
	Identity       identity.Resolver
	Users          *service.UserService
	Reports        *service.ReportService
	Tasks          *service.TaskService
	Ledger         *service.Ledger
	Notifications  *service.NotificationService
	Places         PlaceSearcher
	Network        NetworkReader
	MaxUploadBytes int64
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger         *slog.Logger
	identity       identity.Resolver
	users          *service.UserService
	reports        *service.ReportService
	tasks          *service.TaskService
	ledger         *service.Ledger
	notifications  *service.NotificationService
	places         PlaceSearcher
	network        NetworkReader
	maxUploadBytes int64
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, deps APIDependencies) *APIHandlers {
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &APIHandlers{
		logger:         logger,
		identity:       deps.Identity,
		users:          deps.Users,
		reports:        deps.Reports,
		tasks:          deps.Tasks,
		ledger:         deps.Ledger,
		notifications:  deps.Notifications,
		places:         deps.Places,
		network:        deps.Network,
		maxUploadBytes: maxUpload,
	}
}

// actor resolves the caller and makes sure a user row exists for it. It
// writes the error response itself and returns false on failure.
func (h *APIHandlers) actor(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	if h.identity == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return domain.User{}, false
	}
	id, err := h.identity.Resolve(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return domain.User{}, false
	}
	user, err := h.users.Ensure(r.Context(), id.Email, id.Name)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to resolve user")
		return domain.User{}, false
	}
	return user, true
}

func (h *APIHandlers) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	account, err := h.ledger.Account(r.Context(), user.ID)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to load reward account")
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		User:    toUserResponse(user),
		Account: toAccountResponse(account),
	})
}

func (h *APIHandlers) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *APIHandlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	entries, err := h.ledger.Leaderboard(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	resp := make([]leaderboardEntryResponse, 0, len(entries))
	for i, e := range entries {
		resp = append(resp, leaderboardEntryResponse{
			Rank:     i + 1,
			UserID:   e.UserID,
			UserName: e.UserName,
			Points:   e.Points,
			Level:    e.Level,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": resp})
}

func (h *APIHandlers) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	items, err := h.notifications.Unread(r.Context(), user.ID)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	resp := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, toNotificationResponse(n))
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": resp})
}

// handleNotificationAction serves POST /notifications/{id}/read.
func (h *APIHandlers) handleNotificationAction(w http.ResponseWriter, r *http.Request) {
	id, action := splitAction(r.URL.Path, "/notifications/")
	if id == "" || action != "read" {
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
	if err := h.notifications.MarkRead(r.Context(), user.ID, id); err != nil {
		h.fail(w, err, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{Status: "ok", ID: id})
}

func (h *APIHandlers) handlePlaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.places == nil {
		writeError(w, http.StatusServiceUnavailable, "places lookup is not configured")
		return
	}
	places, err := h.places.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, err, http.StatusBadGateway, "places lookup failed")
		return
	}
	resp := make([]placeResponse, 0, len(places))
	for _, p := range places {
		resp = append(resp, placeResponse{Name: p.Name, FormattedAddress: p.FormattedAddress})
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": resp})
}

func (h *APIHandlers) handleNetwork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.actor(w, r)
	if !ok {
		return
	}
	if h.network == nil {
		writeError(w, http.StatusServiceUnavailable, "collection network is disabled")
		return
	}
	peers, err := h.network.UserNetwork(r.Context(), user.ID)
	if err != nil {
		h.fail(w, err, http.StatusBadGateway, "failed to load collection network")
		return
	}
	respondJSON(w, http.StatusOK, toNetworkResponse(peers))
}

// fail maps service errors onto HTTP statuses. Errors that match no known
// class are logged and answered with fallback and msg.
func (h *APIHandlers) fail(w http.ResponseWriter, err error, fallback int, msg string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, identity.ErrNoIdentity):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEvidenceRequired),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidKind),
		errors.Is(err, service.ErrUnknownPrize),
		errors.Is(err, geocode.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNotCollector):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrNothingToRedeem),
		errors.Is(err, service.ErrTaskUnavailable),
		errors.Is(err, service.ErrSelfCollection),
		errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, verification.ErrUnavailable),
		errors.Is(err, geocode.ErrDisabled),
		errors.Is(err, network.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, fallback, msg)
	}
}

// --- Helpers ---

// splitAction splits "/prefix/{id}/{action}" into its parts.
func splitAction(path, prefix string) (string, string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, action, _ := strings.Cut(rest, "/")
	return id, action
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
