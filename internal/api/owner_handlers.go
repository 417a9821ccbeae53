package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/service"
)

// OwnerHandler serves the dashboard surface for parking owners.
type OwnerHandler struct {
	Bookings *service.BookingService
	Reports  *service.ReportService
	Log      *zap.SugaredLogger
}

func NewOwnerHandler(bookings *service.BookingService, reports *service.ReportService, log *zap.SugaredLogger) *OwnerHandler {
	return &OwnerHandler{Bookings: bookings, Reports: reports, Log: log}
}

func (h *OwnerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	stats, err := h.Reports.OwnerDashboard(identity.UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListBookings returns bookings across all of the owner's locations.
// Query param: status.
func (h *OwnerHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	bookings, err := h.Bookings.ListForOwner(identity.UserID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Revenue returns the owner's revenue rollup.
// Query params: granularity (daily|weekly|monthly|yearly), from, to.
func (h *OwnerHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	granularity := q.Get("granularity")
	if granularity == "" {
		granularity = "daily"
	}
	points, err := h.Reports.Revenue(identity.UserID, granularity, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
