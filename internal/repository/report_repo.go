package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

// ReportRepository runs the aggregate queries behind dashboards and revenue
// rollups. Revenue counts bookings that actually occupied (or will occupy) a
// slot: checked_in and completed.
type ReportRepository struct {
	DB *sql.DB
}

func NewReportRepository(database *sql.DB) *ReportRepository {
	return &ReportRepository{DB: database}
}

type RevenuePoint struct {
	Period       string `json:"period"`
	RevenueCents int64  `json:"revenue_cents"`
	Bookings     int    `json:"bookings"`
}

type AdminStats struct {
	TotalUsers            int   `json:"total_users"`
	TotalOwners           int   `json:"total_owners"`
	TotalParkingLocations int   `json:"total_parking_locations"`
	TotalBookings         int   `json:"total_bookings"`
	ActiveBookings        int   `json:"active_bookings"`
	CompletedBookings     int   `json:"completed_bookings"`
	CancelledBookings     int   `json:"cancelled_bookings"`
	TotalRevenueCents     int64 `json:"total_revenue_cents"`
}

type OwnerStats struct {
	TotalParkingLocations  int   `json:"total_parking_locations"`
	ActiveParkingLocations int   `json:"active_parking_locations"`
	TotalTwoWheelerSlots   int   `json:"total_two_wheeler_capacity"`
	TotalFourWheelerSlots  int   `json:"total_four_wheeler_capacity"`
	TotalBookings          int   `json:"total_bookings"`
	ActiveBookings         int   `json:"active_bookings"`
	CompletedBookings      int   `json:"completed_bookings"`
	TotalRevenueCents      int64 `json:"total_revenue_cents"`
	TodayRevenueCents      int64 `json:"today_revenue_cents"`
}

var truncUnits = map[string]string{
	"daily":   "day",
	"weekly":  "week",
	"monthly": "month",
	"yearly":  "year",
}

// Revenue aggregates amount and booking count per period between from and to.
// granularity must be one of daily/weekly/monthly/yearly. ownerID == 0 spans
// the whole platform.
func (r *ReportRepository) Revenue(ownerID int, granularity string, from, to time.Time) ([]RevenuePoint, error) {
	unit, ok := truncUnits[granularity]
	if !ok {
		return nil, apperrors.New(apperrors.OperationFailed, "unsupported report granularity")
	}

	query := fmt.Sprintf(
		`SELECT date_trunc('%s', b.created_at)::date AS period,
		        COALESCE(SUM(b.amount_cents), 0), COUNT(*)
		 FROM parking_bookings b
		 JOIN parking_locations l ON l.id = b.parking_location_id
		 WHERE b.status IN ($1, $2) AND b.created_at >= $3 AND b.created_at < $4`, unit)
	args := []any{db.StatusCheckedIn, db.StatusCompleted, from, to}
	if ownerID != 0 {
		query += ` AND l.owner_id = $5`
		args = append(args, ownerID)
	}
	query += ` GROUP BY period ORDER BY period`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, apperrors.Failed("query revenue report", err)
	}
	defer rows.Close()

	var points []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		var period time.Time
		if err := rows.Scan(&period, &p.RevenueCents, &p.Bookings); err != nil {
			return nil, apperrors.Failed("scan revenue point", err)
		}
		p.Period = period.Format("2006-01-02")
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *ReportRepository) AdminDashboard() (*AdminStats, error) {
	var s AdminStats
	err := r.DB.QueryRow(
		`SELECT
		 (SELECT COUNT(*) FROM users WHERE role = $1),
		 (SELECT COUNT(*) FROM users WHERE role = $2),
		 (SELECT COUNT(*) FROM parking_locations),
		 (SELECT COUNT(*) FROM parking_bookings),
		 (SELECT COUNT(*) FROM parking_bookings WHERE status IN ($3, $4)),
		 (SELECT COUNT(*) FROM parking_bookings WHERE status = $5),
		 (SELECT COUNT(*) FROM parking_bookings WHERE status = $6),
		 (SELECT COALESCE(SUM(amount_cents), 0) FROM parking_bookings WHERE status IN ($4, $5))`,
		db.RoleUser, db.RoleOwner,
		db.StatusUpcoming, db.StatusCheckedIn, db.StatusCompleted, db.StatusCancelled,
	).Scan(&s.TotalUsers, &s.TotalOwners, &s.TotalParkingLocations, &s.TotalBookings,
		&s.ActiveBookings, &s.CompletedBookings, &s.CancelledBookings, &s.TotalRevenueCents)
	if err != nil {
		return nil, apperrors.Failed("query admin dashboard", err)
	}
	return &s, nil
}

func (r *ReportRepository) OwnerDashboard(ownerID int, now time.Time) (*OwnerStats, error) {
	var s OwnerStats
	err := r.DB.QueryRow(
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active),
		        COALESCE(SUM(two_wheeler_capacity), 0), COALESCE(SUM(four_wheeler_capacity), 0)
		 FROM parking_locations WHERE owner_id = $1`,
		ownerID,
	).Scan(&s.TotalParkingLocations, &s.ActiveParkingLocations,
		&s.TotalTwoWheelerSlots, &s.TotalFourWheelerSlots)
	if err != nil {
		return nil, apperrors.Failed("query owner locations", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	err = r.DB.QueryRow(
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE b.status IN ($2, $3)),
		        COUNT(*) FILTER (WHERE b.status = $4),
		        COALESCE(SUM(b.amount_cents) FILTER (WHERE b.status IN ($3, $4)), 0),
		        COALESCE(SUM(b.amount_cents) FILTER (WHERE b.status IN ($3, $4) AND b.created_at >= $5), 0)
		 FROM parking_bookings b
		 JOIN parking_locations l ON l.id = b.parking_location_id
		 WHERE l.owner_id = $1`,
		ownerID, db.StatusUpcoming, db.StatusCheckedIn, db.StatusCompleted, dayStart,
	).Scan(&s.TotalBookings, &s.ActiveBookings, &s.CompletedBookings,
		&s.TotalRevenueCents, &s.TodayRevenueCents)
	if err != nil {
		return nil, apperrors.Failed("query owner bookings", err)
	}
	return &s, nil
}
