package repository

import (
	"database/sql"
	"errors"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

// BookingRepository owns the booking ledger and the capacity counters. Every
// method that pairs a booking write with a counter update runs as one
// transaction with a row-level lock on the targeted counter, so two
// concurrent reservations can never both observe the same free slot.
type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingColumns = `id, user_id, vehicle_id, parking_location_id, booking_type, status,
	vehicle_class, check_in_time, check_out_time, duration_hours, amount_cents, token,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.VehicleID, &b.ParkingLocationID, &b.BookingType, &b.Status,
		&b.VehicleClass, &b.CheckInTime, &b.CheckOutTime, &b.DurationHours, &b.AmountCents,
		&b.Token, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateWalkIn reserves one unit from the coarse (location, class) pool and
// persists the booking, atomically. Returns NoCapacity when the pool is
// exhausted or has no availability row.
func (r *BookingRepository) CreateWalkIn(b *db.Booking) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return apperrors.Failed("begin walk-in transaction", err)
	}
	defer tx.Rollback()

	var availabilityID, available int
	err = tx.QueryRow(
		`SELECT id, available_slots FROM slot_availabilities
		 WHERE parking_location_id = $1 AND vehicle_class = $2
		 FOR UPDATE`,
		b.ParkingLocationID, b.VehicleClass,
	).Scan(&availabilityID, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNoCapacity
		}
		return apperrors.Failed("lock slot availability", err)
	}
	if available <= 0 {
		return apperrors.ErrNoCapacity
	}

	_, err = tx.Exec(
		`UPDATE slot_availabilities SET available_slots = available_slots - 1, updated_at = NOW()
		 WHERE id = $1`,
		availabilityID,
	)
	if err != nil {
		return apperrors.Failed("decrement slot availability", err)
	}

	if err := insertBooking(tx, b); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Failed("commit walk-in booking", err)
	}
	return nil
}

// CreateAdvance materializes the (location, class, date, start, end) time
// slot at slotCapacity if absent, then reserves one unit from it and persists
// the booking, all in one transaction. The ON CONFLICT upsert locks the row
// and closes the race where two requests both see "no row yet" and would each
// hand out the full capacity.
func (r *BookingRepository) CreateAdvance(b *db.Booking, date, startTime, endTime string, slotCapacity int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return apperrors.Failed("begin advance transaction", err)
	}
	defer tx.Rollback()

	var slotID, available int
	err = tx.QueryRow(
		`INSERT INTO parking_time_slots
		 (parking_location_id, vehicle_class, date, start_time, end_time, available_slots, total_slots)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (parking_location_id, vehicle_class, date, start_time, end_time)
		 DO UPDATE SET available_slots = parking_time_slots.available_slots
		 RETURNING id, available_slots`,
		b.ParkingLocationID, b.VehicleClass, date, startTime, endTime, slotCapacity,
	).Scan(&slotID, &available)
	if err != nil {
		return apperrors.Failed("upsert time slot", err)
	}
	if available <= 0 {
		return apperrors.ErrNoCapacity
	}

	_, err = tx.Exec(
		`UPDATE parking_time_slots SET available_slots = available_slots - 1 WHERE id = $1`,
		slotID,
	)
	if err != nil {
		return apperrors.Failed("decrement time slot", err)
	}

	if err := insertBooking(tx, b); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Failed("commit advance booking", err)
	}
	return nil
}

func insertBooking(tx *sql.Tx, b *db.Booking) error {
	err := tx.QueryRow(
		`INSERT INTO parking_bookings
		 (user_id, vehicle_id, parking_location_id, booking_type, status, vehicle_class,
		  check_in_time, check_out_time, duration_hours, amount_cents, token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		b.UserID, b.VehicleID, b.ParkingLocationID, b.BookingType, b.Status, b.VehicleClass,
		b.CheckInTime, b.CheckOutTime, b.DurationHours, b.AmountCents, b.Token,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return apperrors.Failed("insert booking", err)
	}
	return nil
}

// Cancel transitions an upcoming booking to cancelled and, for advance
// bookings, credits the unit back to its time-slot bucket. A missing bucket
// row is tolerated; a present one is never pushed above its recorded total.
func (r *BookingRepository) Cancel(bookingID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return apperrors.Failed("begin cancel transaction", err)
	}
	defer tx.Rollback()

	locked, err := lockBooking(tx, bookingID)
	if err != nil {
		return err
	}
	if locked.Status != db.StatusUpcoming {
		return apperrors.New(apperrors.InvalidTransition, "only upcoming bookings can be cancelled")
	}

	_, err = tx.Exec(
		`UPDATE parking_bookings SET status = $1, updated_at = NOW() WHERE id = $2`,
		db.StatusCancelled, bookingID,
	)
	if err != nil {
		return apperrors.Failed("update booking status", err)
	}

	if locked.BookingType == db.BookingTypeAdvance {
		if err := releaseTimeSlot(tx, locked); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Failed("commit cancel", err)
	}
	return nil
}

// Complete transitions a checked-in booking to completed and credits the unit
// back to the bucket it was reserved from: the coarse pool for walk-ins, the
// time-slot bucket for advance bookings.
func (r *BookingRepository) Complete(bookingID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return apperrors.Failed("begin complete transaction", err)
	}
	defer tx.Rollback()

	locked, err := lockBooking(tx, bookingID)
	if err != nil {
		return err
	}
	if locked.Status != db.StatusCheckedIn {
		return apperrors.New(apperrors.InvalidTransition, "only checked-in bookings can be completed")
	}

	_, err = tx.Exec(
		`UPDATE parking_bookings SET status = $1, updated_at = NOW() WHERE id = $2`,
		db.StatusCompleted, bookingID,
	)
	if err != nil {
		return apperrors.Failed("update booking status", err)
	}

	if locked.BookingType == db.BookingTypeWalkIn {
		_, err = tx.Exec(
			`UPDATE slot_availabilities
			 SET available_slots = LEAST(available_slots + 1, total_slots), updated_at = NOW()
			 WHERE parking_location_id = $1 AND vehicle_class = $2`,
			locked.ParkingLocationID, locked.VehicleClass,
		)
		if err != nil {
			return apperrors.Failed("release slot availability", err)
		}
	} else {
		if err := releaseTimeSlot(tx, locked); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Failed("commit complete", err)
	}
	return nil
}

// MarkCheckedIn flips an upcoming booking to checked_in. No counter moves:
// advance capacity was committed at creation time.
func (r *BookingRepository) MarkCheckedIn(bookingID int) error {
	result, err := r.DB.Exec(
		`UPDATE parking_bookings SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		db.StatusCheckedIn, bookingID, db.StatusUpcoming,
	)
	if err != nil {
		return apperrors.Failed("mark checked in", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Failed("mark checked in", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.InvalidTransition, "booking is no longer upcoming")
	}
	return nil
}

func lockBooking(tx *sql.Tx, bookingID int) (*db.Booking, error) {
	b, err := scanBooking(tx.QueryRow(
		`SELECT `+bookingColumns+` FROM parking_bookings WHERE id = $1 FOR UPDATE`,
		bookingID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.NotFound, "booking not found")
		}
		return nil, apperrors.Failed("lock booking row", err)
	}
	return b, nil
}

// releaseTimeSlot reconstructs the time-slot key from the booking's stored
// check-in/out times. RowsAffected == 0 (row never materialized or already
// swept) is a no-op, and LEAST keeps a double release from corrupting state.
func releaseTimeSlot(tx *sql.Tx, b *db.Booking) error {
	_, err := tx.Exec(
		`UPDATE parking_time_slots
		 SET available_slots = LEAST(available_slots + 1, total_slots)
		 WHERE parking_location_id = $1 AND vehicle_class = $2
		   AND date = $3 AND start_time = $4 AND end_time = $5`,
		b.ParkingLocationID, b.VehicleClass,
		b.CheckInTime.UTC().Format("2006-01-02"),
		b.CheckInTime.UTC().Format("15:04"),
		b.CheckOutTime.UTC().Format("15:04"),
	)
	if err != nil {
		return apperrors.Failed("release time slot", err)
	}
	return nil
}

// GetByID loads a booking with its vehicle and location eager-loaded.
func (r *BookingRepository) GetByID(bookingID int) (*db.Booking, error) {
	row := r.DB.QueryRow(
		`SELECT `+joinedBookingColumns+`
		 FROM parking_bookings b
		 JOIN vehicles v ON v.id = b.vehicle_id
		 JOIN parking_locations l ON l.id = b.parking_location_id
		 WHERE b.id = $1`,
		bookingID,
	)
	b, err := scanJoinedBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.NotFound, "booking not found")
		}
		return nil, apperrors.Failed("query booking", err)
	}
	return b, nil
}

// GetByToken resolves a presented check-in token to its booking.
func (r *BookingRepository) GetByToken(token string) (*db.Booking, error) {
	b, err := scanBooking(r.DB.QueryRow(
		`SELECT `+bookingColumns+` FROM parking_bookings WHERE token = $1`,
		token,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUnknownToken
		}
		return nil, apperrors.Failed("query booking by token", err)
	}
	return b, nil
}

// ListByUser returns the user's bookings, newest first, optionally filtered
// by status, with vehicle and location eager-loaded.
func (r *BookingRepository) ListByUser(userID int, status string) ([]db.Booking, error) {
	query := `SELECT ` + joinedBookingColumns + `
		 FROM parking_bookings b
		 JOIN vehicles v ON v.id = b.vehicle_id
		 JOIN parking_locations l ON l.id = b.parking_location_id
		 WHERE b.user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND b.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY b.created_at DESC`
	return r.queryJoined(query, args...)
}

// ListByOwner returns bookings across all of an owner's locations.
func (r *BookingRepository) ListByOwner(ownerID int, status string) ([]db.Booking, error) {
	query := `SELECT ` + joinedBookingColumns + `
		 FROM parking_bookings b
		 JOIN vehicles v ON v.id = b.vehicle_id
		 JOIN parking_locations l ON l.id = b.parking_location_id
		 WHERE l.owner_id = $1`
	args := []any{ownerID}
	if status != "" {
		query += ` AND b.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY b.created_at DESC`
	return r.queryJoined(query, args...)
}

// ListAll returns every booking, newest first, optionally filtered by status.
func (r *BookingRepository) ListAll(status string) ([]db.Booking, error) {
	query := `SELECT ` + joinedBookingColumns + `
		 FROM parking_bookings b
		 JOIN vehicles v ON v.id = b.vehicle_id
		 JOIN parking_locations l ON l.id = b.parking_location_id`
	var args []any
	if status != "" {
		query += ` WHERE b.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY b.created_at DESC`
	return r.queryJoined(query, args...)
}

// CountActiveByVehicle counts non-terminal bookings that reference a vehicle.
func (r *BookingRepository) CountActiveByVehicle(vehicleID int) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM parking_bookings
		 WHERE vehicle_id = $1 AND status IN ($2, $3)`,
		vehicleID, db.StatusUpcoming, db.StatusCheckedIn,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Failed("count active bookings", err)
	}
	return count, nil
}

const joinedBookingColumns = `b.id, b.user_id, b.vehicle_id, b.parking_location_id, b.booking_type,
	b.status, b.vehicle_class, b.check_in_time, b.check_out_time, b.duration_hours,
	b.amount_cents, b.token, b.created_at, b.updated_at,
	v.id, v.user_id, v.type, v.number_plate, v.brand, v.model, v.color,
	l.id, l.owner_id, l.name, l.address, l.city, l.state, l.country, l.zip_code,
	l.two_wheeler_capacity, l.four_wheeler_capacity,
	l.two_wheeler_hourly_cents, l.four_wheeler_hourly_cents, l.is_active`

func scanJoinedBooking(row interface{ Scan(...any) error }) (*db.Booking, error) {
	var b db.Booking
	var v db.Vehicle
	var l db.ParkingLocation
	err := row.Scan(
		&b.ID, &b.UserID, &b.VehicleID, &b.ParkingLocationID, &b.BookingType,
		&b.Status, &b.VehicleClass, &b.CheckInTime, &b.CheckOutTime, &b.DurationHours,
		&b.AmountCents, &b.Token, &b.CreatedAt, &b.UpdatedAt,
		&v.ID, &v.UserID, &v.Type, &v.NumberPlate, &v.Brand, &v.Model, &v.Color,
		&l.ID, &l.OwnerID, &l.Name, &l.Address, &l.City, &l.State, &l.Country, &l.ZipCode,
		&l.TwoWheelerCapacity, &l.FourWheelerCapacity,
		&l.TwoWheelerHourlyCents, &l.FourWheelerHourlyCents, &l.IsActive,
	)
	if err != nil {
		return nil, err
	}
	b.Vehicle = &v
	b.Location = &l
	return &b, nil
}

func (r *BookingRepository) queryJoined(query string, args ...any) ([]db.Booking, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, apperrors.Failed("query bookings", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanJoinedBooking(rows)
		if err != nil {
			return nil, apperrors.Failed("scan booking", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Failed("iterate bookings", err)
	}
	return bookings, nil
}
