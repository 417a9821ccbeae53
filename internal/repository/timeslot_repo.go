package repository

import (
	"database/sql"
	"time"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

// TimeSlotRepository serves the snapshot reads behind the time-window
// generator. It never mutates counters; materialization and decrements happen
// inside the booking repository's transactions.
type TimeSlotRepository struct {
	DB *sql.DB
}

func NewTimeSlotRepository(database *sql.DB) *TimeSlotRepository {
	return &TimeSlotRepository{DB: database}
}

// hhmm trims a Postgres TIME value ("09:00:00") to HH:MM.
func hhmm(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

// ListForDate returns the persisted time-slot rows for one location, class
// and date. Windows with no row are implicitly at full capacity.
func (r *TimeSlotRepository) ListForDate(locationID int, class, date string) ([]db.TimeSlot, error) {
	rows, err := r.DB.Query(
		`SELECT id, parking_location_id, vehicle_class, date, start_time, end_time,
		        available_slots, total_slots
		 FROM parking_time_slots
		 WHERE parking_location_id = $1 AND vehicle_class = $2 AND date = $3
		 ORDER BY start_time`,
		locationID, class, date,
	)
	if err != nil {
		return nil, apperrors.Failed("query time slots", err)
	}
	defer rows.Close()

	var slots []db.TimeSlot
	for rows.Next() {
		var s db.TimeSlot
		var d time.Time
		var start, end string
		if err := rows.Scan(&s.ID, &s.ParkingLocationID, &s.VehicleClass, &d,
			&start, &end, &s.AvailableSlots, &s.TotalSlots); err != nil {
			return nil, apperrors.Failed("scan time slot", err)
		}
		s.Date = d.Format("2006-01-02")
		s.StartTime = hhmm(start)
		s.EndTime = hhmm(end)
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ExhaustedCountsByDate counts fully booked windows per date over [from, to],
// used to flag dates as partially available.
func (r *TimeSlotRepository) ExhaustedCountsByDate(locationID int, class, from, to string) (map[string]int, error) {
	rows, err := r.DB.Query(
		`SELECT date, COUNT(*)
		 FROM parking_time_slots
		 WHERE parking_location_id = $1 AND vehicle_class = $2
		   AND date BETWEEN $3 AND $4 AND available_slots = 0
		 GROUP BY date`,
		locationID, class, from, to,
	)
	if err != nil {
		return nil, apperrors.Failed("query exhausted time slots", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var d time.Time
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, apperrors.Failed("scan exhausted count", err)
		}
		counts[d.Format("2006-01-02")] = n
	}
	return counts, rows.Err()
}
