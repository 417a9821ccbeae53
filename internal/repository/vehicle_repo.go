package repository

import (
	"database/sql"
	"errors"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

const vehicleColumns = `id, user_id, type, number_plate, brand, model, color, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*db.Vehicle, error) {
	var v db.Vehicle
	err := row.Scan(&v.ID, &v.UserID, &v.Type, &v.NumberPlate, &v.Brand, &v.Model, &v.Color,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) Create(v *db.Vehicle) error {
	err := r.DB.QueryRow(
		`INSERT INTO vehicles (user_id, type, number_plate, brand, model, color)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		v.UserID, v.Type, v.NumberPlate, v.Brand, v.Model, v.Color,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.Conflict, "number plate already registered")
		}
		return apperrors.Failed("insert vehicle", err)
	}
	return nil
}

func (r *VehicleRepository) GetByID(vehicleID int) (*db.Vehicle, error) {
	v, err := scanVehicle(r.DB.QueryRow(
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, vehicleID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.NotFound, "vehicle not found")
		}
		return nil, apperrors.Failed("query vehicle", err)
	}
	return v, nil
}

func (r *VehicleRepository) Update(v *db.Vehicle) error {
	_, err := r.DB.Exec(
		`UPDATE vehicles SET type = $1, number_plate = $2, brand = $3, model = $4, color = $5,
		 updated_at = NOW() WHERE id = $6`,
		v.Type, v.NumberPlate, v.Brand, v.Model, v.Color, v.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.Conflict, "number plate already registered")
		}
		return apperrors.Failed("update vehicle", err)
	}
	return nil
}

func (r *VehicleRepository) Delete(vehicleID int) error {
	result, err := r.DB.Exec(`DELETE FROM vehicles WHERE id = $1`, vehicleID)
	if err != nil {
		return apperrors.Failed("delete vehicle", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Failed("delete vehicle", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.NotFound, "vehicle not found")
	}
	return nil
}

func (r *VehicleRepository) ListByUser(userID int) ([]db.Vehicle, error) {
	rows, err := r.DB.Query(
		`SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, apperrors.Failed("query vehicles", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, apperrors.Failed("scan vehicle", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}
