package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/device-portal/internal/api/middleware"
	"github.com/example/device-portal/internal/command"
	"github.com/example/device-portal/internal/domain/cart"
	"github.com/example/device-portal/internal/domain/device"
	"github.com/example/device-portal/internal/domain/request"
	"github.com/example/device-portal/internal/domain/user"
	"github.com/example/device-portal/internal/portalerr"
	"github.com/example/device-portal/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	respondJSON(w, http.StatusOK, h.queryHandler.GetCart(userID))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		DeviceID string `json:"device_id"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	cmd := command.AddToCart{
		UserID:   userID,
		DeviceID: req.DeviceID,
		Quantity: req.Quantity,
	}
	updated, err := h.cmdHandler.AddToCart(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	deviceID := extractPathParam(r.URL.Path, "/cart/items/")

	cmd := command.RemoveFromCart{UserID: userID, DeviceID: deviceID}
	updated, err := h.cmdHandler.RemoveFromCart(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	deviceID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	cmd := command.SetCartItemQuantity{
		UserID:   userID,
		DeviceID: deviceID,
		Quantity: req.Quantity,
	}
	updated, err := h.cmdHandler.SetCartItemQuantity(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	cmd := command.ClearCart{UserID: userID}
	if err := h.cmdHandler.ClearCart(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Request Handlers

func (h *Handlers) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, portalerr.CodeUnauthorized, "Unauthorized")
		return
	}

	cmd := command.SubmitRequest{UserID: claims.UserID, Company: claims.Company}
	req, err := h.cmdHandler.SubmitRequest(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, req)
}

func (h *Handlers) GetRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	respondJSON(w, http.StatusOK, h.queryHandler.ListRequestsByUser(userID))
}

func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/requests/")
	id = strings.TrimSuffix(id, "/cancel")

	req, ok := h.queryHandler.GetRequest(id)
	if !ok {
		respondError(w, http.StatusNotFound, portalerr.CodeNotFound, "Request not found")
		return
	}

	// Buyers only see their own requests; admins see all
	userID := middleware.GetUserID(r.Context())
	if req.UserID != userID && !isAdmin(r) {
		respondError(w, http.StatusForbidden, portalerr.CodeForbidden, "Forbidden")
		return
	}

	respondJSON(w, http.StatusOK, req)
}

func (h *Handlers) CancelRequest(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/requests/")
	id := strings.TrimSuffix(path, "/cancel")

	req, ok := h.queryHandler.GetRequest(id)
	if !ok {
		respondError(w, http.StatusNotFound, portalerr.CodeNotFound, "Request not found")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if req.UserID != userID && !isAdmin(r) {
		respondError(w, http.StatusForbidden, portalerr.CodeForbidden, "Forbidden")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	cmd := command.CancelRequest{RequestID: id, Reason: body.Reason}
	if err := h.cmdHandler.CancelRequest(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes the portal's JSON error envelope: a human-readable
// message plus a machine-readable code clients branch on.
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

// respondCommandError translates domain errors into HTTP responses
func respondCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, request.ErrRequestNotFound),
		errors.Is(err, user.ErrUserNotFound):
		respondError(w, http.StatusNotFound, portalerr.CodeNotFound, err.Error())
	case errors.Is(err, request.ErrRequestCompleted),
		errors.Is(err, request.ErrRequestCancelled),
		errors.Is(err, request.ErrInvalidStatus):
		respondError(w, http.StatusConflict, "", err.Error())
	case errors.Is(err, command.ErrDeviceUnavailable),
		errors.Is(err, device.ErrDeviceRetired),
		errors.Is(err, device.ErrNegativeStock),
		errors.Is(err, device.ErrUnknownLocation),
		errors.Is(err, device.ErrInvalidQuantities),
		errors.Is(err, device.ErrMissingDeviceField),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrEmptyDeviceID),
		errors.Is(err, request.ErrEmptyRequest):
		respondError(w, http.StatusBadRequest, "", err.Error())
	default:
		respondError(w, portalerr.HTTPStatus(err), portalerr.CodeOf(err), err.Error())
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// isAdmin checks if the current user has admin role
func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.Role == user.RoleAdmin
}
