package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/service"
)

type BookingHandler struct {
	Service *service.BookingService
	Log     *zap.SugaredLogger
}

func NewBookingHandler(svc *service.BookingService, log *zap.SugaredLogger) *BookingHandler {
	return &BookingHandler{Service: svc, Log: log}
}

// CreateWalkIn books an immediate slot. The booking starts checked in and the
// response carries the token shown at the gate on exit.
func (h *BookingHandler) CreateWalkIn(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var req WalkInBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	booking, err := h.Service.CreateWalkIn(identity.UserID, req.VehicleID, req.ParkingLocationID, req.DurationHours)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// CreateAdvance books a future time window.
func (h *BookingHandler) CreateAdvance(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var req AdvanceBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	booking, err := h.Service.CreateAdvance(identity.UserID, req.VehicleID, req.ParkingLocationID,
		req.Date, req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	bookings, err := h.Service.ListForUser(identity.UserID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid booking id")
		return
	}
	booking, err := h.Service.Get(id, identity)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid booking id")
		return
	}
	if err := h.Service.Cancel(id, identity); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking cancelled"})
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid booking id")
		return
	}
	if err := h.Service.Complete(id, identity); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking completed"})
}

// VerifyToken is the gate-side check-in endpoint for advance bookings.
// Re-presenting the token of an already checked-in booking succeeds without
// side effects.
func (h *BookingHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Token == "" {
		badRequest(w, "token is required")
		return
	}
	booking, err := h.Service.PresentToken(req.Token, time.Now().UTC())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking": booking,
		"message": "checked in",
	})
}
