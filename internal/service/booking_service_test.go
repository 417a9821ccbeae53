package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type bookingFixture struct {
	svc       *BookingService
	bookings  *fakeBookingStore
	vehicles  *fakeVehicleStore
	locations *fakeLocationStore
	location  *db.ParkingLocation
	vehicle   *db.Vehicle
}

// newBookingFixture wires a booking service over in-memory stores with one
// user (ID 1), one four-wheeler and one location. Rates: two-wheeler 100
// cents/hour, four-wheeler 200 cents/hour.
func newBookingFixture(t *testing.T, twoCap, fourCap int) *bookingFixture {
	t.Helper()

	bookings := newFakeBookingStore()
	vehicles := newFakeVehicleStore()
	locations := newFakeLocationStore()
	users := newFakeUserStore()

	user := &db.User{Name: "Asha", Email: "asha@example.com", Role: db.RoleUser}
	require.NoError(t, users.Create(user))

	vehicle := &db.Vehicle{UserID: user.ID, Type: "car", NumberPlate: "GJ01AB1234"}
	require.NoError(t, vehicles.Create(vehicle))

	location := &db.ParkingLocation{
		OwnerID:                50,
		Name:                   "Central Plaza",
		City:                   "Ahmedabad",
		TwoWheelerCapacity:     twoCap,
		FourWheelerCapacity:    fourCap,
		TwoWheelerHourlyCents:  100,
		FourWheelerHourlyCents: 200,
	}
	require.NoError(t, locations.Create(location))
	bookings.seedPool(location.ID, db.ClassTwoWheeler, twoCap)
	bookings.seedPool(location.ID, db.ClassFourWheeler, fourCap)

	svc := NewBookingService(bookings, vehicles, locations, users,
		NewTokenIssuer(), &fakeNotifier{}, zap.NewNop().Sugar())
	svc.now = func() time.Time { return testNow }

	return &bookingFixture{
		svc:       svc,
		bookings:  bookings,
		vehicles:  vehicles,
		locations: locations,
		location:  location,
		vehicle:   vehicle,
	}
}

func TestCreateWalkIn(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	booking, err := fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, db.StatusCheckedIn, booking.Status)
	assert.Equal(t, db.BookingTypeWalkIn, booking.BookingType)
	assert.Equal(t, db.ClassFourWheeler, booking.VehicleClass)
	assert.Equal(t, 600, booking.AmountCents)
	assert.Equal(t, testNow, booking.CheckInTime)
	assert.Equal(t, testNow.Add(3*time.Hour), booking.CheckOutTime)
	assert.NotEmpty(t, booking.Token)

	assert.Equal(t, 4, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))
	assert.Equal(t, 10, fx.bookings.poolAvailable(fx.location.ID, db.ClassTwoWheeler))
}

func TestCreateWalkInDurationBounds(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	for _, hours := range []int{0, -1, 25} {
		_, err := fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, hours)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidDuration), "hours=%d", hours)
	}
	assert.Equal(t, 5, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))
}

func TestCreateWalkInNoCapacity(t *testing.T) {
	fx := newBookingFixture(t, 10, 1)

	_, err := fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 1)
	require.NoError(t, err)

	_, err = fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 1)
	assert.True(t, errors.Is(err, apperrors.ErrNoCapacity))
}

func TestCreateWalkInConcurrent(t *testing.T) {
	const capacity, attempts = 5, 20
	fx := newBookingFixture(t, 10, capacity)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 2)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, apperrors.ErrNoCapacity))
		}
	}
	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, 0, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))
}

func TestCreateWalkInTargetChecks(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	otherVehicle := &db.Vehicle{UserID: 2, Type: "car"}
	require.NoError(t, fx.vehicles.Create(otherVehicle))

	_, err := fx.svc.CreateWalkIn(1, otherVehicle.ID, fx.location.ID, 2)
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))

	_, err = fx.svc.CreateWalkIn(1, 999, fx.location.ID, 2)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = fx.locations.ToggleActive(fx.location.ID)
	require.NoError(t, err)
	_, err = fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 2)
	assert.True(t, errors.Is(err, apperrors.ErrInactiveLocation))
}

func TestCreateAdvance(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	booking, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "11:00")
	require.NoError(t, err)

	assert.Equal(t, db.StatusUpcoming, booking.Status)
	assert.Equal(t, db.BookingTypeAdvance, booking.BookingType)
	assert.Equal(t, 2, booking.DurationHours)
	assert.Equal(t, 400, booking.AmountCents)
	assert.Equal(t, time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC), booking.CheckInTime)
	assert.Equal(t, time.Date(2025, 6, 16, 11, 0, 0, 0, time.UTC), booking.CheckOutTime)

	available, ok := fx.bookings.windowAvailable(fx.location.ID, db.ClassFourWheeler, "2025-06-16", "09:00", "11:00")
	require.True(t, ok, "window should be materialized on first booking")
	assert.Equal(t, 4, available)

	// Walk-in pool is untouched by advance bookings.
	assert.Equal(t, 5, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))
}

func TestCreateAdvanceValidation(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	_, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "09:30")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidDuration))

	_, err = fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "11:00", "09:00")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidDuration))

	// Window starting at or before the current instant.
	_, err = fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-15", "09:00", "11:00")
	assert.True(t, errors.Is(err, apperrors.ErrPastDateTime))

	_, err = fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "16-06-2025", "09:00", "11:00")
	assert.Error(t, err)
}

func TestCreateAdvanceConcurrentSameWindow(t *testing.T) {
	const capacity, attempts = 3, 12
	fx := newBookingFixture(t, 10, capacity)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "11:00")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, capacity, succeeded)

	available, _ := fx.bookings.windowAvailable(fx.location.ID, db.ClassFourWheeler, "2025-06-16", "09:00", "11:00")
	assert.Equal(t, 0, available)
}

func TestPresentToken(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	booking, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "11:00")
	require.NoError(t, err)
	checkIn := booking.CheckInTime

	_, err = fx.svc.PresentToken(booking.Token, checkIn.Add(-20*time.Minute))
	assert.True(t, errors.Is(err, apperrors.ErrTooEarly))

	checked, err := fx.svc.PresentToken(booking.Token, checkIn.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, db.StatusCheckedIn, checked.Status)

	// Re-presenting the same token verifies without a second transition.
	again, err := fx.svc.PresentToken(booking.Token, checkIn.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, db.StatusCheckedIn, again.Status)

	// Check-in does not consume more capacity.
	available, _ := fx.bookings.windowAvailable(fx.location.ID, db.ClassFourWheeler, "2025-06-16", "09:00", "11:00")
	assert.Equal(t, 4, available)
}

func TestPresentTokenRejections(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	_, err := fx.svc.PresentToken("no-such-token", testNow)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownToken))

	booking, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "11:00")
	require.NoError(t, err)
	require.NoError(t, fx.svc.Cancel(booking.ID, auth.Identity{UserID: 1, Role: db.RoleUser}))

	_, err = fx.svc.PresentToken(booking.Token, booking.CheckInTime)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTokenState))
}

func TestCancelReleasesWindow(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)
	actor := auth.Identity{UserID: 1, Role: db.RoleUser}

	booking, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "11:00")
	require.NoError(t, err)

	require.NoError(t, fx.svc.Cancel(booking.ID, actor))
	available, _ := fx.bookings.windowAvailable(fx.location.ID, db.ClassFourWheeler, "2025-06-16", "09:00", "11:00")
	assert.Equal(t, 5, available)

	err = fx.svc.Cancel(booking.ID, actor)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}

func TestCancelWalkInRejected(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	booking, err := fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 2)
	require.NoError(t, err)

	err = fx.svc.Cancel(booking.ID, auth.Identity{UserID: 1, Role: db.RoleUser})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	assert.Equal(t, 4, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))
}

func TestCancelAuthorization(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	booking, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "11:00")
	require.NoError(t, err)

	err = fx.svc.Cancel(booking.ID, auth.Identity{UserID: 2, Role: db.RoleUser})
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))

	require.NoError(t, fx.svc.Cancel(booking.ID, auth.Identity{UserID: 99, Role: db.RoleAdmin}))
}

func TestCompleteWalkInReleasesPool(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)
	actor := auth.Identity{UserID: 1, Role: db.RoleUser}

	booking, err := fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))

	require.NoError(t, fx.svc.Complete(booking.ID, actor))
	assert.Equal(t, 5, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))

	err = fx.svc.Complete(booking.ID, actor)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	assert.Equal(t, 5, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))
}

func TestCompleteAdvanceReleasesWindow(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)
	actor := auth.Identity{UserID: 1, Role: db.RoleUser}

	booking, err := fx.svc.CreateAdvance(1, fx.vehicle.ID, fx.location.ID, "2025-06-16", "09:00", "11:00")
	require.NoError(t, err)

	// Completing an upcoming booking is rejected; it must check in first.
	err = fx.svc.Complete(booking.ID, actor)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	_, err = fx.svc.PresentToken(booking.Token, booking.CheckInTime)
	require.NoError(t, err)
	require.NoError(t, fx.svc.Complete(booking.ID, actor))

	available, _ := fx.bookings.windowAvailable(fx.location.ID, db.ClassFourWheeler, "2025-06-16", "09:00", "11:00")
	assert.Equal(t, 5, available)
	assert.Equal(t, 5, fx.bookings.poolAvailable(fx.location.ID, db.ClassFourWheeler))
}

func TestGetScoping(t *testing.T) {
	fx := newBookingFixture(t, 10, 5)

	booking, err := fx.svc.CreateWalkIn(1, fx.vehicle.ID, fx.location.ID, 2)
	require.NoError(t, err)

	_, err = fx.svc.Get(booking.ID, auth.Identity{UserID: 1, Role: db.RoleUser})
	require.NoError(t, err)

	_, err = fx.svc.Get(booking.ID, auth.Identity{UserID: 2, Role: db.RoleUser})
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))

	_, err = fx.svc.Get(booking.ID, auth.Identity{UserID: 7, Role: db.RoleAdmin})
	require.NoError(t, err)
}
