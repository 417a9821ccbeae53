package service

import (
	"time"

	"github.com/Keyur1433/digipark-backend/internal/db"
)

// Store interfaces consumed by the services. The repository package provides
// the Postgres implementations; tests substitute fakes.

type BookingStore interface {
	CreateWalkIn(b *db.Booking) error
	CreateAdvance(b *db.Booking, date, startTime, endTime string, slotCapacity int) error
	Cancel(bookingID int) error
	Complete(bookingID int) error
	MarkCheckedIn(bookingID int) error
	GetByID(bookingID int) (*db.Booking, error)
	GetByToken(token string) (*db.Booking, error)
	ListByUser(userID int, status string) ([]db.Booking, error)
	ListByOwner(ownerID int, status string) ([]db.Booking, error)
	ListAll(status string) ([]db.Booking, error)
	CountActiveByVehicle(vehicleID int) (int, error)
}

type LocationStore interface {
	Create(l *db.ParkingLocation) error
	Update(l *db.ParkingLocation) error
	ToggleActive(locationID int) (bool, error)
	GetByID(locationID int) (*db.ParkingLocation, error)
	Delete(locationID int) error
	Search(term, city string) ([]db.ParkingLocation, error)
	ListByOwner(ownerID int) ([]db.ParkingLocation, error)
	ListAll() ([]db.ParkingLocation, error)
	GetAvailability(locationID int) ([]db.SlotAvailability, error)
}

type VehicleStore interface {
	Create(v *db.Vehicle) error
	GetByID(vehicleID int) (*db.Vehicle, error)
	Update(v *db.Vehicle) error
	Delete(vehicleID int) error
	ListByUser(userID int) ([]db.Vehicle, error)
}

type TimeSlotStore interface {
	ListForDate(locationID int, class, date string) ([]db.TimeSlot, error)
	ExhaustedCountsByDate(locationID int, class, from, to string) (map[string]int, error)
}

type UserStore interface {
	Create(u *db.User) error
	GetByID(userID int) (*db.User, error)
	GetByEmail(email string) (*db.User, error)
	UpdateProfile(userID int, name, phone string) error
	UpdatePassword(userID int, passwordHash string) error
	MarkVerified(userID int) error
	ToggleActive(userID int) (bool, error)
	ListByRole(role string) ([]db.User, error)
	ReplaceOtp(o *db.OtpVerification) error
	LatestOtp(userID int, otpType string) (*db.OtpVerification, error)
	VerifyOtp(userID int, otp, otpType string, now time.Time) (bool, error)
	DeleteExpiredOtps(now time.Time) (int64, error)
}

// Notifier is the outbound side of user-facing messages.
type Notifier interface {
	NotifyOtp(email, name, phone, otp, purpose string)
	NotifyBookingStatus(email, name, plate, status string)
}
