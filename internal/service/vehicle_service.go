package service

import (
	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

type VehicleInput struct {
	Type        string `json:"type"`
	NumberPlate string `json:"number_plate"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Color       string `json:"color"`
}

// activeBookingCounter is the slice of BookingStore the vehicle service needs
// to protect deletes.
type activeBookingCounter interface {
	CountActiveByVehicle(vehicleID int) (int, error)
}

type VehicleService struct {
	vehicles VehicleStore
	bookings activeBookingCounter
}

func NewVehicleService(vehicles VehicleStore, bookings activeBookingCounter) *VehicleService {
	return &VehicleService{vehicles: vehicles, bookings: bookings}
}

func (s *VehicleService) Create(userID int, in VehicleInput) (*db.Vehicle, error) {
	vehicle := &db.Vehicle{
		UserID:      userID,
		Type:        in.Type,
		NumberPlate: in.NumberPlate,
		Brand:       in.Brand,
		Model:       in.Model,
		Color:       in.Color,
	}
	if err := s.vehicles.Create(vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Update edits a vehicle's descriptive fields. Ownership is immutable.
func (s *VehicleService) Update(vehicleID, userID int, in VehicleInput) (*db.Vehicle, error) {
	vehicle, err := s.owned(vehicleID, userID)
	if err != nil {
		return nil, err
	}
	vehicle.Type = in.Type
	vehicle.NumberPlate = in.NumberPlate
	vehicle.Brand = in.Brand
	vehicle.Model = in.Model
	vehicle.Color = in.Color
	if err := s.vehicles.Update(vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Delete removes a vehicle unless a non-terminal booking still references it.
func (s *VehicleService) Delete(vehicleID, userID int) error {
	if _, err := s.owned(vehicleID, userID); err != nil {
		return err
	}
	active, err := s.bookings.CountActiveByVehicle(vehicleID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperrors.New(apperrors.VehicleInUse, "cannot delete vehicle with active bookings")
	}
	return s.vehicles.Delete(vehicleID)
}

func (s *VehicleService) Get(vehicleID, userID int) (*db.Vehicle, error) {
	return s.owned(vehicleID, userID)
}

func (s *VehicleService) ListForUser(userID int) ([]db.Vehicle, error) {
	return s.vehicles.ListByUser(userID)
}

func (s *VehicleService) owned(vehicleID, userID int) (*db.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != userID {
		return nil, apperrors.New(apperrors.Forbidden, "the vehicle does not belong to you")
	}
	return vehicle, nil
}
