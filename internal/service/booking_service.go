package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/db"
	"github.com/Keyur1433/digipark-backend/internal/utils"
)

const (
	minDurationHours = 1
	maxWalkInHours   = 24

	// Advance bookings may check in up to this long before the scheduled time.
	earlyArrivalWindow = 15 * time.Minute
)

// BookingService drives the booking lifecycle: creation, token presentation,
// cancellation and completion. Every transition that moves capacity delegates
// to the store's atomic reserve/release transactions.
type BookingService struct {
	bookings  BookingStore
	vehicles  VehicleStore
	locations LocationStore
	users     UserStore
	issuer    *TokenIssuer
	notifier  Notifier
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewBookingService(bookings BookingStore, vehicles VehicleStore, locations LocationStore,
	users UserStore, issuer *TokenIssuer, notifier Notifier, log *zap.SugaredLogger) *BookingService {
	return &BookingService{
		bookings:  bookings,
		vehicles:  vehicles,
		locations: locations,
		users:     users,
		issuer:    issuer,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// resolveTarget loads and authorizes the vehicle/location pair every creation
// shares: the vehicle must belong to the caller and the location must accept
// new bookings.
func (s *BookingService) resolveTarget(userID, vehicleID, locationID int) (*db.Vehicle, *db.ParkingLocation, error) {
	vehicle, err := s.vehicles.GetByID(vehicleID)
	if err != nil {
		return nil, nil, err
	}
	if vehicle.UserID != userID {
		return nil, nil, apperrors.New(apperrors.Forbidden, "the vehicle does not belong to you")
	}
	location, err := s.locations.GetByID(locationID)
	if err != nil {
		return nil, nil, err
	}
	if !location.IsActive {
		return nil, nil, apperrors.ErrInactiveLocation
	}
	return vehicle, location, nil
}

// CreateWalkIn books an immediate slot from the coarse per-location pool and
// returns the booking already checked in.
func (s *BookingService) CreateWalkIn(userID, vehicleID, locationID, durationHours int) (*db.Booking, error) {
	vehicle, location, err := s.resolveTarget(userID, vehicleID, locationID)
	if err != nil {
		return nil, err
	}
	if durationHours < minDurationHours || durationHours > maxWalkInHours {
		return nil, apperrors.New(apperrors.InvalidDuration, "duration must be between 1 and 24 hours")
	}

	class := utils.ClassForVehicleType(vehicle.Type)
	now := s.now().UTC()

	booking := &db.Booking{
		UserID:            userID,
		VehicleID:         vehicleID,
		ParkingLocationID: locationID,
		BookingType:       db.BookingTypeWalkIn,
		Status:            db.StatusCheckedIn,
		VehicleClass:      class,
		CheckInTime:       now,
		CheckOutTime:      now.Add(time.Duration(durationHours) * time.Hour),
		DurationHours:     durationHours,
		AmountCents:       location.HourlyCents(class) * durationHours,
		Token:             s.issuer.Mint(),
	}
	if err := s.bookings.CreateWalkIn(booking); err != nil {
		return nil, err
	}

	s.log.Infow("walk-in booking created",
		"booking_id", booking.ID, "location_id", locationID, "class", class)
	return booking, nil
}

// CreateAdvance reserves a slot in the (date, start, end) time window,
// materializing the window's counter at full capacity if this is the first
// booking against it.
func (s *BookingService) CreateAdvance(userID, vehicleID, locationID int, date, startTime, endTime string) (*db.Booking, error) {
	vehicle, location, err := s.resolveTarget(userID, vehicleID, locationID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.OperationFailed, "malformed date", err)
	}
	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.OperationFailed, "malformed start time", err)
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.OperationFailed, "malformed end time", err)
	}

	durationHours := int(end.Sub(start).Hours())
	if durationHours < minDurationHours {
		return nil, apperrors.New(apperrors.InvalidDuration, "booking duration must be at least 1 hour")
	}

	checkIn := day.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
	checkOut := day.Add(time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute)
	if !checkIn.After(s.now().UTC()) {
		return nil, apperrors.ErrPastDateTime
	}

	class := utils.ClassForVehicleType(vehicle.Type)
	booking := &db.Booking{
		UserID:            userID,
		VehicleID:         vehicleID,
		ParkingLocationID: locationID,
		BookingType:       db.BookingTypeAdvance,
		Status:            db.StatusUpcoming,
		VehicleClass:      class,
		CheckInTime:       checkIn,
		CheckOutTime:      checkOut,
		DurationHours:     durationHours,
		AmountCents:       location.HourlyCents(class) * durationHours,
		Token:             s.issuer.Mint(),
	}
	if err := s.bookings.CreateAdvance(booking, date, startTime, endTime, location.Capacity(class)); err != nil {
		return nil, err
	}

	s.log.Infow("advance booking created",
		"booking_id", booking.ID, "location_id", locationID, "class", class,
		"date", date, "window", startTime+"-"+endTime)
	return booking, nil
}

// PresentToken handles a scanned check-in token. Upcoming advance bookings
// transition to checked_in, subject to the early-arrival window; no counter
// moves because advance capacity was committed at creation. Presenting an
// already checked-in token is an idempotent verification.
func (s *BookingService) PresentToken(token string, now time.Time) (*db.Booking, error) {
	booking, err := s.bookings.GetByToken(token)
	if err != nil {
		return nil, err
	}

	switch {
	case booking.Status == db.StatusCheckedIn:
		return booking, nil
	case booking.Status == db.StatusUpcoming && booking.BookingType == db.BookingTypeAdvance:
		if now.Before(booking.CheckInTime.Add(-earlyArrivalWindow)) {
			return nil, apperrors.New(apperrors.TooEarly,
				"too early for check-in, please come back closer to your scheduled time")
		}
		if err := s.bookings.MarkCheckedIn(booking.ID); err != nil {
			return nil, err
		}
		booking.Status = db.StatusCheckedIn
		s.log.Infow("advance booking checked in", "booking_id", booking.ID)
		return booking, nil
	default:
		return nil, apperrors.ErrInvalidTokenState
	}
}

// Cancel voids an upcoming booking and returns its unit to the time-window
// bucket. Only the booking's owner or an admin may cancel.
func (s *BookingService) Cancel(bookingID int, actor auth.Identity) error {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != actor.UserID && actor.Role != db.RoleAdmin {
		return apperrors.New(apperrors.Forbidden, "this booking does not belong to you")
	}
	if err := s.bookings.Cancel(bookingID); err != nil {
		return err
	}

	s.log.Infow("booking cancelled", "booking_id", bookingID, "actor_id", actor.UserID)
	s.notifyStatus(booking, db.StatusCancelled)
	return nil
}

// Complete checks a booking out and frees the bucket it was reserved from.
// Allowed for the booking's owner, the location's owner and admins.
func (s *BookingService) Complete(bookingID int, actor auth.Identity) error {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return err
	}
	permitted := booking.UserID == actor.UserID ||
		actor.Role == db.RoleAdmin ||
		(actor.Role == db.RoleOwner && booking.Location != nil && booking.Location.OwnerID == actor.UserID)
	if !permitted {
		return apperrors.New(apperrors.Forbidden, "this booking does not belong to you")
	}
	if err := s.bookings.Complete(bookingID); err != nil {
		return err
	}

	s.log.Infow("booking completed", "booking_id", bookingID, "actor_id", actor.UserID)
	s.notifyStatus(booking, db.StatusCompleted)
	return nil
}

// Get returns one booking with sub-records, scoped to the caller.
func (s *BookingService) Get(bookingID int, actor auth.Identity) (*db.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	permitted := booking.UserID == actor.UserID ||
		actor.Role == db.RoleAdmin ||
		(actor.Role == db.RoleOwner && booking.Location != nil && booking.Location.OwnerID == actor.UserID)
	if !permitted {
		return nil, apperrors.New(apperrors.Forbidden, "this booking does not belong to you")
	}
	return booking, nil
}

func (s *BookingService) ListForUser(userID int, status string) ([]db.Booking, error) {
	return s.bookings.ListByUser(userID, status)
}

func (s *BookingService) ListForOwner(ownerID int, status string) ([]db.Booking, error) {
	return s.bookings.ListByOwner(ownerID, status)
}

func (s *BookingService) ListAll(status string) ([]db.Booking, error) {
	return s.bookings.ListAll(status)
}

func (s *BookingService) notifyStatus(booking *db.Booking, status string) {
	if s.notifier == nil || booking.Vehicle == nil {
		return
	}
	// Recipient details ride on the eager-loaded records when present.
	plate := booking.Vehicle.NumberPlate
	if user, err := s.userFor(booking); err == nil {
		s.notifier.NotifyBookingStatus(user.Email, user.Name, plate, status)
	}
}

// userFor is a seam for notification recipient lookup; the handler layer
// usually already has the user loaded, so this stays best effort.
func (s *BookingService) userFor(booking *db.Booking) (*db.User, error) {
	if s.users == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.users.GetByID(booking.UserID)
}
