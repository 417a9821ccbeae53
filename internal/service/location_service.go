package service

import (
	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

// LocationInput carries the owner-editable location fields. Money values are
// integer cents.
type LocationInput struct {
	Name                   string `json:"name"`
	Address                string `json:"address"`
	City                   string `json:"city"`
	State                  string `json:"state"`
	Country                string `json:"country"`
	ZipCode                string `json:"zip_code"`
	TwoWheelerCapacity     int    `json:"two_wheeler_capacity"`
	FourWheelerCapacity    int    `json:"four_wheeler_capacity"`
	TwoWheelerHourlyCents  int    `json:"two_wheeler_hourly_cents"`
	FourWheelerHourlyCents int    `json:"four_wheeler_hourly_cents"`
}

type LocationService struct {
	locations LocationStore
	log       *zap.SugaredLogger
}

func NewLocationService(locations LocationStore, log *zap.SugaredLogger) *LocationService {
	return &LocationService{locations: locations, log: log}
}

func validateLocationInput(in LocationInput) error {
	if in.TwoWheelerCapacity < 0 || in.FourWheelerCapacity < 0 {
		return apperrors.New(apperrors.OperationFailed, "capacity cannot be negative")
	}
	if in.TwoWheelerHourlyCents < 0 || in.FourWheelerHourlyCents < 0 {
		return apperrors.New(apperrors.OperationFailed, "hourly rate cannot be negative")
	}
	return nil
}

// Create opens a new location for an owner, seeding both capacity pools.
func (s *LocationService) Create(ownerID int, in LocationInput) (*db.ParkingLocation, error) {
	if err := validateLocationInput(in); err != nil {
		return nil, err
	}
	location := &db.ParkingLocation{
		OwnerID:                ownerID,
		Name:                   in.Name,
		Address:                in.Address,
		City:                   in.City,
		State:                  in.State,
		Country:                in.Country,
		ZipCode:                in.ZipCode,
		TwoWheelerCapacity:     in.TwoWheelerCapacity,
		FourWheelerCapacity:    in.FourWheelerCapacity,
		TwoWheelerHourlyCents:  in.TwoWheelerHourlyCents,
		FourWheelerHourlyCents: in.FourWheelerHourlyCents,
	}
	if err := s.locations.Create(location); err != nil {
		return nil, err
	}
	s.log.Infow("parking location created", "location_id", location.ID, "owner_id", ownerID)
	return location, nil
}

// Update edits a location the actor owns. Capacity changes rebalance the
// availability counters and fail with CapacityReductionConflict when shrunk
// below the units currently in use.
func (s *LocationService) Update(locationID int, actor auth.Identity, in LocationInput) (*db.ParkingLocation, error) {
	if err := validateLocationInput(in); err != nil {
		return nil, err
	}
	location, err := s.authorized(locationID, actor)
	if err != nil {
		return nil, err
	}

	location.Name = in.Name
	location.Address = in.Address
	location.City = in.City
	location.State = in.State
	location.Country = in.Country
	location.ZipCode = in.ZipCode
	location.TwoWheelerCapacity = in.TwoWheelerCapacity
	location.FourWheelerCapacity = in.FourWheelerCapacity
	location.TwoWheelerHourlyCents = in.TwoWheelerHourlyCents
	location.FourWheelerHourlyCents = in.FourWheelerHourlyCents

	if err := s.locations.Update(location); err != nil {
		return nil, err
	}
	s.log.Infow("parking location updated", "location_id", locationID)
	return location, nil
}

// ToggleActive flips the gate for new bookings. Existing bookings keep their
// reserved capacity.
func (s *LocationService) ToggleActive(locationID int, actor auth.Identity) (bool, error) {
	if _, err := s.authorized(locationID, actor); err != nil {
		return false, err
	}
	active, err := s.locations.ToggleActive(locationID)
	if err != nil {
		return false, err
	}
	s.log.Infow("parking location status toggled", "location_id", locationID, "is_active", active)
	return active, nil
}

func (s *LocationService) Delete(locationID int, actor auth.Identity) error {
	if _, err := s.authorized(locationID, actor); err != nil {
		return err
	}
	return s.locations.Delete(locationID)
}

func (s *LocationService) Get(locationID int) (*db.ParkingLocation, error) {
	return s.locations.GetByID(locationID)
}

func (s *LocationService) Availability(locationID int) ([]db.SlotAvailability, error) {
	return s.locations.GetAvailability(locationID)
}

func (s *LocationService) Search(term, city string) ([]db.ParkingLocation, error) {
	return s.locations.Search(term, city)
}

func (s *LocationService) ListForOwner(ownerID int) ([]db.ParkingLocation, error) {
	return s.locations.ListByOwner(ownerID)
}

func (s *LocationService) ListAll() ([]db.ParkingLocation, error) {
	return s.locations.ListAll()
}

func (s *LocationService) authorized(locationID int, actor auth.Identity) (*db.ParkingLocation, error) {
	location, err := s.locations.GetByID(locationID)
	if err != nil {
		return nil, err
	}
	if location.OwnerID != actor.UserID && actor.Role != db.RoleAdmin {
		return nil, apperrors.New(apperrors.Forbidden, "this parking location does not belong to you")
	}
	return location, nil
}
