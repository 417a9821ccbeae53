package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/service"
)

type LocationHandler struct {
	Service  *service.LocationService
	TimeSlot *service.TimeSlotService
	Log      *zap.SugaredLogger
}

func NewLocationHandler(svc *service.LocationService, slots *service.TimeSlotService, log *zap.SugaredLogger) *LocationHandler {
	return &LocationHandler{Service: svc, TimeSlot: slots, Log: log}
}

// Search is the public browse endpoint. Query params: q, city.
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Service.Search(r.URL.Query().Get("q"), r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid location id")
		return
	}
	location, err := h.Service.Get(id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// Availability returns the live per-class counters for one location.
func (h *LocationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid location id")
		return
	}
	slots, err := h.Service.Availability(id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// TimeSlots returns the half-hour advance-booking windows for one date.
// Query params: vehicle_type (required), date (required, YYYY-MM-DD).
func (h *LocationHandler) TimeSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid location id")
		return
	}
	date := r.URL.Query().Get("date")
	vehicleType := r.URL.Query().Get("vehicle_type")
	if date == "" || vehicleType == "" {
		badRequest(w, "date and vehicle_type are required")
		return
	}
	windows, err := h.TimeSlot.ListWindows(id, vehicleType, date)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

// BookableDates returns the rolling date strip for advance bookings.
func (h *LocationHandler) BookableDates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid location id")
		return
	}
	vehicleType := r.URL.Query().Get("vehicle_type")
	if vehicleType == "" {
		badRequest(w, "vehicle_type is required")
		return
	}
	dates, err := h.TimeSlot.ListBookableDates(id, vehicleType)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var req service.LocationInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	location, err := h.Service.Create(identity.UserID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, location)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid location id")
		return
	}
	var req service.LocationInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	location, err := h.Service.Update(id, identity, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func (h *LocationHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid location id")
		return
	}
	active, err := h.Service.ToggleActive(id, identity)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_active": active})
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid location id")
		return
	}
	if err := h.Service.Delete(id, identity); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "location deleted"})
}

func (h *LocationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	locations, err := h.Service.ListForOwner(identity.UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}
