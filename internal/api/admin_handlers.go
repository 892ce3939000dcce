package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/device-portal/internal/api/middleware"
	"github.com/example/device-portal/internal/command"
	"github.com/example/device-portal/internal/portalerr"
	"github.com/example/device-portal/internal/query"
)

// AdminHandlers serves the admin surface: account approval, request
// processing, and the inventory feed. Every route is behind
// RequireRole("admin").
type AdminHandlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewAdminHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *AdminHandlers {
	return &AdminHandlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Account approval

func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListUsers())
}

func (h *AdminHandlers) ActivateUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/users/"), "/activate")

	cmd := command.ActivateUser{UserID: userID, AdminID: middleware.GetUserID(r.Context())}
	if err := h.cmdHandler.ActivateUser(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "User activated"})
}

func (h *AdminHandlers) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/users/"), "/deactivate")

	cmd := command.DeactivateUser{UserID: userID, AdminID: middleware.GetUserID(r.Context())}
	if err := h.cmdHandler.DeactivateUser(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "User deactivated"})
}

// Request processing

func (h *AdminHandlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListAllRequests())
}

func (h *AdminHandlers) StartProcessingRequest(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/requests/"), "/process")

	cmd := command.StartProcessingRequest{RequestID: requestID, AdminID: middleware.GetUserID(r.Context())}
	if err := h.cmdHandler.StartProcessingRequest(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Request processing"})
}

func (h *AdminHandlers) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/requests/"), "/complete")

	cmd := command.CompleteRequest{RequestID: requestID, AdminID: middleware.GetUserID(r.Context())}
	if err := h.cmdHandler.CompleteRequest(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Request completed"})
}

// Inventory feed

func (h *AdminHandlers) SyncDevice(w http.ResponseWriter, r *http.Request) {
	var cmd command.SyncDevice
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	synced, err := h.cmdHandler.SyncDevice(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, synced)
}

func (h *AdminHandlers) AdjustDeviceStock(w http.ResponseWriter, r *http.Request) {
	deviceID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/devices/"), "/stock")

	var req struct {
		Location string `json:"location"`
		Delta    int    `json:"delta"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	cmd := command.AdjustDeviceStock{
		DeviceID: deviceID,
		Location: req.Location,
		Delta:    req.Delta,
		Reason:   req.Reason,
	}
	if err := h.cmdHandler.AdjustDeviceStock(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Stock adjusted"})
}

func (h *AdminHandlers) RetireDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := extractPathParam(r.URL.Path, "/admin/devices/")

	var req struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	cmd := command.RetireDevice{DeviceID: deviceID, Reason: req.Reason}
	if err := h.cmdHandler.RetireDevice(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Device retired"})
}

// GetUser returns one user with their request history
func (h *AdminHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := extractPathParam(r.URL.Path, "/admin/users/")

	userModel, ok := h.queryHandler.GetUser(userID)
	if !ok {
		respondError(w, http.StatusNotFound, portalerr.CodeNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user":     userModel,
		"requests": h.queryHandler.ListRequestsByUser(userID),
	})
}
