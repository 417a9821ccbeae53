package repository

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

type LocationRepository struct {
	DB *sql.DB
}

func NewLocationRepository(database *sql.DB) *LocationRepository {
	return &LocationRepository{DB: database}
}

const locationColumns = `id, owner_id, name, address, city, state, country, zip_code,
	two_wheeler_capacity, four_wheeler_capacity,
	two_wheeler_hourly_cents, four_wheeler_hourly_cents, is_active, created_at, updated_at`

func scanLocation(row interface{ Scan(...any) error }) (*db.ParkingLocation, error) {
	var l db.ParkingLocation
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Name, &l.Address, &l.City, &l.State, &l.Country, &l.ZipCode,
		&l.TwoWheelerCapacity, &l.FourWheelerCapacity,
		&l.TwoWheelerHourlyCents, &l.FourWheelerHourlyCents, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts the location and seeds both class availability rows at full
// capacity, atomically.
func (r *LocationRepository) Create(l *db.ParkingLocation) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return apperrors.Failed("begin create location", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`INSERT INTO parking_locations
		 (owner_id, name, address, city, state, country, zip_code,
		  two_wheeler_capacity, four_wheeler_capacity,
		  two_wheeler_hourly_cents, four_wheeler_hourly_cents, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		 RETURNING id, is_active, created_at, updated_at`,
		l.OwnerID, l.Name, l.Address, l.City, l.State, l.Country, l.ZipCode,
		l.TwoWheelerCapacity, l.FourWheelerCapacity,
		l.TwoWheelerHourlyCents, l.FourWheelerHourlyCents,
	).Scan(&l.ID, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return apperrors.Failed("insert location", err)
	}

	for class, capacity := range map[string]int{
		db.ClassTwoWheeler:  l.TwoWheelerCapacity,
		db.ClassFourWheeler: l.FourWheelerCapacity,
	} {
		_, err = tx.Exec(
			`INSERT INTO slot_availabilities
			 (parking_location_id, vehicle_class, available_slots, total_slots)
			 VALUES ($1, $2, $3, $3)`,
			l.ID, class, capacity,
		)
		if err != nil {
			return apperrors.Failed("seed slot availability", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Failed("commit create location", err)
	}
	return nil
}

// Update rewrites the location's fields and rebalances the per-class counters
// when capacity changed. Shrinking below currently occupied units fails with
// CapacityReductionConflict and nothing is persisted.
func (r *LocationRepository) Update(l *db.ParkingLocation) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return apperrors.Failed("begin update location", err)
	}
	defer tx.Rollback()

	for class, newTotal := range map[string]int{
		db.ClassTwoWheeler:  l.TwoWheelerCapacity,
		db.ClassFourWheeler: l.FourWheelerCapacity,
	} {
		var available, total int
		err = tx.QueryRow(
			`SELECT available_slots, total_slots FROM slot_availabilities
			 WHERE parking_location_id = $1 AND vehicle_class = $2
			 FOR UPDATE`,
			l.ID, class,
		).Scan(&available, &total)
		if err != nil {
			return apperrors.Failed("lock slot availability", err)
		}
		if newTotal == total {
			continue
		}
		occupied := total - available
		if newTotal < occupied {
			return apperrors.ErrCapacityReductionConflict
		}
		_, err = tx.Exec(
			`UPDATE slot_availabilities
			 SET available_slots = $1, total_slots = $2, updated_at = NOW()
			 WHERE parking_location_id = $3 AND vehicle_class = $4`,
			newTotal-occupied, newTotal, l.ID, class,
		)
		if err != nil {
			return apperrors.Failed("rebalance slot availability", err)
		}
	}

	_, err = tx.Exec(
		`UPDATE parking_locations SET
		 name = $1, address = $2, city = $3, state = $4, country = $5, zip_code = $6,
		 two_wheeler_capacity = $7, four_wheeler_capacity = $8,
		 two_wheeler_hourly_cents = $9, four_wheeler_hourly_cents = $10, updated_at = NOW()
		 WHERE id = $11`,
		l.Name, l.Address, l.City, l.State, l.Country, l.ZipCode,
		l.TwoWheelerCapacity, l.FourWheelerCapacity,
		l.TwoWheelerHourlyCents, l.FourWheelerHourlyCents, l.ID,
	)
	if err != nil {
		return apperrors.Failed("update location", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Failed("commit update location", err)
	}
	return nil
}

// ToggleActive flips the active flag and returns the new value. Existing
// bookings are unaffected; the flag only gates new ones.
func (r *LocationRepository) ToggleActive(locationID int) (bool, error) {
	var active bool
	err := r.DB.QueryRow(
		`UPDATE parking_locations SET is_active = NOT is_active, updated_at = NOW()
		 WHERE id = $1 RETURNING is_active`,
		locationID,
	).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.New(apperrors.NotFound, "parking location not found")
		}
		return false, apperrors.Failed("toggle location status", err)
	}
	return active, nil
}

func (r *LocationRepository) GetByID(locationID int) (*db.ParkingLocation, error) {
	l, err := scanLocation(r.DB.QueryRow(
		`SELECT `+locationColumns+` FROM parking_locations WHERE id = $1`,
		locationID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.NotFound, "parking location not found")
		}
		return nil, apperrors.Failed("query location", err)
	}
	return l, nil
}

func (r *LocationRepository) Delete(locationID int) error {
	result, err := r.DB.Exec(`DELETE FROM parking_locations WHERE id = $1`, locationID)
	if err != nil {
		return apperrors.Failed("delete location", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Failed("delete location", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.NotFound, "parking location not found")
	}
	return nil
}

// Search lists active locations matching the optional name/address/city term
// and city filter.
func (r *LocationRepository) Search(term, city string) ([]db.ParkingLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM parking_locations WHERE is_active = TRUE`
	var args []any
	if term != "" {
		args = append(args, "%"+term+"%")
		query += ` AND (name ILIKE $1 OR address ILIKE $1 OR city ILIKE $1)`
	}
	if city != "" {
		args = append(args, city)
		query += ` AND city = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY name`
	return r.queryLocations(query, args...)
}

func (r *LocationRepository) ListByOwner(ownerID int) ([]db.ParkingLocation, error) {
	return r.queryLocations(
		`SELECT `+locationColumns+` FROM parking_locations WHERE owner_id = $1 ORDER BY name`,
		ownerID,
	)
}

func (r *LocationRepository) ListAll() ([]db.ParkingLocation, error) {
	return r.queryLocations(`SELECT ` + locationColumns + ` FROM parking_locations ORDER BY name`)
}

// GetAvailability returns the coarse counters for a location, one row per
// class.
func (r *LocationRepository) GetAvailability(locationID int) ([]db.SlotAvailability, error) {
	rows, err := r.DB.Query(
		`SELECT id, parking_location_id, vehicle_class, available_slots, total_slots, updated_at
		 FROM slot_availabilities WHERE parking_location_id = $1 ORDER BY vehicle_class`,
		locationID,
	)
	if err != nil {
		return nil, apperrors.Failed("query slot availabilities", err)
	}
	defer rows.Close()

	var availabilities []db.SlotAvailability
	for rows.Next() {
		var a db.SlotAvailability
		if err := rows.Scan(&a.ID, &a.ParkingLocationID, &a.VehicleClass,
			&a.AvailableSlots, &a.TotalSlots, &a.UpdatedAt); err != nil {
			return nil, apperrors.Failed("scan slot availability", err)
		}
		availabilities = append(availabilities, a)
	}
	return availabilities, rows.Err()
}

func (r *LocationRepository) queryLocations(query string, args ...any) ([]db.ParkingLocation, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, apperrors.Failed("query locations", err)
	}
	defer rows.Close()

	var locations []db.ParkingLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, apperrors.Failed("scan location", err)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}
