package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/db"
	"github.com/Keyur1433/digipark-backend/internal/service"
)

// AdminHandler serves the platform-wide admin surface.
type AdminHandler struct {
	Bookings  *service.BookingService
	Locations *service.LocationService
	Reports   *service.ReportService
	Users     service.UserStore
	Log       *zap.SugaredLogger
}

func NewAdminHandler(bookings *service.BookingService, locations *service.LocationService,
	reports *service.ReportService, users service.UserStore, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Locations: locations, Reports: reports, Users: users, Log: log}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Reports.AdminDashboard()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Bookings.ListAll(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *AdminHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Locations.ListAll()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// ListUsers returns accounts filtered by role. Query param: role (default
// user).
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		role = db.RoleUser
	}
	users, err := h.Users.ListByRole(role)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ToggleUserActive flips an account's active flag. Deactivated users cannot
// log in.
func (h *AdminHandler) ToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid user id")
		return
	}
	active, err := h.Users.ToggleActive(id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_active": active})
}

// Revenue returns the platform-wide revenue rollup.
func (h *AdminHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	granularity := q.Get("granularity")
	if granularity == "" {
		granularity = "daily"
	}
	points, err := h.Reports.Revenue(0, granularity, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
