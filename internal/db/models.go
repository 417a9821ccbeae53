// Package db holds the row structs mapped to the durable relations and the
// enum values shared across the service.
package db

import "time"

// Roles attached to an authenticated user.
const (
	RoleUser  = "user"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// Canonical vehicle classes. Each class has its own capacity pool and rate.
const (
	ClassTwoWheeler  = "two_wheeler"
	ClassFourWheeler = "four_wheeler"
)

// Booking types.
const (
	BookingTypeWalkIn  = "walk_in"
	BookingTypeAdvance = "advance"
)

// Booking lifecycle statuses. completed and cancelled are terminal.
const (
	StatusUpcoming  = "upcoming"
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Vehicle struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Type        string    `json:"type"` // raw tag, e.g. "two_wheeler", "scooter", "car"
	NumberPlate string    `json:"number_plate"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParkingLocation money columns are integer cents.
type ParkingLocation struct {
	ID                     int       `json:"id"`
	OwnerID                int       `json:"owner_id"`
	Name                   string    `json:"name"`
	Address                string    `json:"address"`
	City                   string    `json:"city"`
	State                  string    `json:"state"`
	Country                string    `json:"country"`
	ZipCode                string    `json:"zip_code"`
	TwoWheelerCapacity     int       `json:"two_wheeler_capacity"`
	FourWheelerCapacity    int       `json:"four_wheeler_capacity"`
	TwoWheelerHourlyCents  int       `json:"two_wheeler_hourly_cents"`
	FourWheelerHourlyCents int       `json:"four_wheeler_hourly_cents"`
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Capacity returns the capacity pool size for the given class.
func (l *ParkingLocation) Capacity(class string) int {
	if class == ClassTwoWheeler {
		return l.TwoWheelerCapacity
	}
	return l.FourWheelerCapacity
}

// HourlyCents returns the hourly rate in cents for the given class.
func (l *ParkingLocation) HourlyCents(class string) int {
	if class == ClassTwoWheeler {
		return l.TwoWheelerHourlyCents
	}
	return l.FourWheelerHourlyCents
}

// SlotAvailability is the coarse per-location counter, one row per
// location x class. Invariant: 0 <= AvailableSlots <= TotalSlots.
type SlotAvailability struct {
	ID                int       `json:"id"`
	ParkingLocationID int       `json:"parking_location_id"`
	VehicleClass      string    `json:"vehicle_class"`
	AvailableSlots    int       `json:"available_slots"`
	TotalSlots        int       `json:"total_slots"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TimeSlot is the fine-grained advance-booking counter, created lazily on
// first booking against its (date, start, end) window. TotalSlots records the
// location capacity at creation time and caps later releases.
type TimeSlot struct {
	ID                int    `json:"id"`
	ParkingLocationID int    `json:"parking_location_id"`
	VehicleClass      string `json:"vehicle_class"`
	Date              string `json:"date"`       // YYYY-MM-DD
	StartTime         string `json:"start_time"` // HH:MM
	EndTime           string `json:"end_time"`   // HH:MM
	AvailableSlots    int    `json:"available_slots"`
	TotalSlots        int    `json:"total_slots"`
}

type Booking struct {
	ID                int       `json:"id"`
	UserID            int       `json:"user_id"`
	VehicleID         int       `json:"vehicle_id"`
	ParkingLocationID int       `json:"parking_location_id"`
	BookingType       string    `json:"booking_type"`
	Status            string    `json:"status"`
	VehicleClass      string    `json:"vehicle_class"`
	CheckInTime       time.Time `json:"check_in_time"`
	CheckOutTime      time.Time `json:"check_out_time"`
	DurationHours     int       `json:"duration_hours"`
	AmountCents       int       `json:"amount_cents"`
	Token             string    `json:"token"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Eager-loaded sub-records, populated on request.
	Vehicle  *Vehicle         `json:"vehicle,omitempty"`
	Location *ParkingLocation `json:"location,omitempty"`
}

// Terminal reports whether the booking is in a terminal status.
func (b *Booking) Terminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

type OtpVerification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Otp       string    `json:"otp"`
	Type      string    `json:"type"` // registration | password_reset
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
