package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

// In-memory stores mirroring the repository contracts, including the
// reserve/release counter semantics, so the services can be exercised
// concurrently without a database.

type counter struct {
	available int
	total     int
}

type fakeBookingStore struct {
	mu       sync.Mutex
	nextID   int
	bookings map[int]*db.Booking
	pools    map[string]*counter // locID:class, walk-in capacity
	windows  map[string]*counter // locID:class:date:start-end
	slotKeys map[int]string      // booking ID -> window key
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings: make(map[int]*db.Booking),
		pools:    make(map[string]*counter),
		windows:  make(map[string]*counter),
		slotKeys: make(map[int]string),
	}
}

func poolKey(locationID int, class string) string {
	return fmt.Sprintf("%d:%s", locationID, class)
}

func (f *fakeBookingStore) seedPool(locationID int, class string, capacity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools[poolKey(locationID, class)] = &counter{available: capacity, total: capacity}
}

func (f *fakeBookingStore) poolAvailable(locationID int, class string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pools[poolKey(locationID, class)]; ok {
		return p.available
	}
	return 0
}

func (f *fakeBookingStore) windowAvailable(locationID int, class, date, start, end string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d:%s:%s:%s-%s", locationID, class, date, start, end)
	if w, ok := f.windows[key]; ok {
		return w.available, true
	}
	return 0, false
}

func (f *fakeBookingStore) CreateWalkIn(b *db.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolKey(b.ParkingLocationID, b.VehicleClass)]
	if !ok || p.available <= 0 {
		return apperrors.ErrNoCapacity
	}
	p.available--
	f.insert(b)
	return nil
}

func (f *fakeBookingStore) CreateAdvance(b *db.Booking, date, startTime, endTime string, slotCapacity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d:%s:%s:%s-%s", b.ParkingLocationID, b.VehicleClass, date, startTime, endTime)
	w, ok := f.windows[key]
	if !ok {
		w = &counter{available: slotCapacity, total: slotCapacity}
		f.windows[key] = w
	}
	if w.available <= 0 {
		return apperrors.ErrNoCapacity
	}
	w.available--
	f.insert(b)
	f.slotKeys[b.ID] = key
	return nil
}

func (f *fakeBookingStore) insert(b *db.Booking) {
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now()
	clone := *b
	f.bookings[b.ID] = &clone
}

func (f *fakeBookingStore) Cancel(bookingID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if b.Status != db.StatusUpcoming {
		return apperrors.ErrInvalidTransition
	}
	b.Status = db.StatusCancelled
	if b.BookingType == db.BookingTypeAdvance {
		f.releaseWindow(b.ID)
	}
	return nil
}

func (f *fakeBookingStore) Complete(bookingID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if b.Status != db.StatusCheckedIn {
		return apperrors.ErrInvalidTransition
	}
	b.Status = db.StatusCompleted
	if b.BookingType == db.BookingTypeWalkIn {
		if p, ok := f.pools[poolKey(b.ParkingLocationID, b.VehicleClass)]; ok && p.available < p.total {
			p.available++
		}
	} else {
		f.releaseWindow(b.ID)
	}
	return nil
}

func (f *fakeBookingStore) releaseWindow(bookingID int) {
	key, ok := f.slotKeys[bookingID]
	if !ok {
		return
	}
	if w, ok := f.windows[key]; ok && w.available < w.total {
		w.available++
	}
}

func (f *fakeBookingStore) MarkCheckedIn(bookingID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok || b.Status != db.StatusUpcoming {
		return apperrors.ErrInvalidTransition
	}
	b.Status = db.StatusCheckedIn
	return nil
}

func (f *fakeBookingStore) GetByID(bookingID int) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingStore) GetByToken(token string) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Token == token {
			clone := *b
			return &clone, nil
		}
	}
	return nil, apperrors.ErrUnknownToken
}

func (f *fakeBookingStore) ListByUser(userID int, status string) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if b.UserID == userID && (status == "" || b.Status == status) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListByOwner(ownerID int, status string) ([]db.Booking, error) {
	return nil, nil
}

func (f *fakeBookingStore) ListAll(status string) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if status == "" || b.Status == status {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) CountActiveByVehicle(vehicleID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.bookings {
		if b.VehicleID == vehicleID && !b.Terminal() {
			n++
		}
	}
	return n, nil
}

type fakeVehicleStore struct {
	mu       sync.Mutex
	nextID   int
	vehicles map[int]*db.Vehicle
}

func newFakeVehicleStore() *fakeVehicleStore {
	return &fakeVehicleStore{vehicles: make(map[int]*db.Vehicle)}
}

func (f *fakeVehicleStore) Create(v *db.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	v.ID = f.nextID
	clone := *v
	f.vehicles[v.ID] = &clone
	return nil
}

func (f *fakeVehicleStore) GetByID(vehicleID int) (*db.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[vehicleID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (f *fakeVehicleStore) Update(v *db.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[v.ID]; !ok {
		return apperrors.ErrNotFound
	}
	clone := *v
	f.vehicles[v.ID] = &clone
	return nil
}

func (f *fakeVehicleStore) Delete(vehicleID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[vehicleID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.vehicles, vehicleID)
	return nil
}

func (f *fakeVehicleStore) ListByUser(userID int) ([]db.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Vehicle
	for _, v := range f.vehicles {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

// fakeLocationStore mirrors the repository's capacity rebalancing on Update,
// including the occupied-slots conflict check.
type fakeLocationStore struct {
	mu        sync.Mutex
	nextID    int
	locations map[int]*db.ParkingLocation
	available map[string]int // locID:class
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{
		locations: make(map[int]*db.ParkingLocation),
		available: make(map[string]int),
	}
}

func (f *fakeLocationStore) occupy(locationID int, class string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available[poolKey(locationID, class)] -= n
}

func (f *fakeLocationStore) Create(l *db.ParkingLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	l.ID = f.nextID
	l.IsActive = true
	clone := *l
	f.locations[l.ID] = &clone
	f.available[poolKey(l.ID, db.ClassTwoWheeler)] = l.TwoWheelerCapacity
	f.available[poolKey(l.ID, db.ClassFourWheeler)] = l.FourWheelerCapacity
	return nil
}

func (f *fakeLocationStore) Update(l *db.ParkingLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.locations[l.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for class, newTotal := range map[string]int{
		db.ClassTwoWheeler:  l.TwoWheelerCapacity,
		db.ClassFourWheeler: l.FourWheelerCapacity,
	} {
		key := poolKey(l.ID, class)
		occupied := current.Capacity(class) - f.available[key]
		if newTotal < occupied {
			return apperrors.ErrCapacityReductionConflict
		}
		f.available[key] = newTotal - occupied
	}
	clone := *l
	f.locations[l.ID] = &clone
	return nil
}

func (f *fakeLocationStore) ToggleActive(locationID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locations[locationID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	l.IsActive = !l.IsActive
	return l.IsActive, nil
}

func (f *fakeLocationStore) GetByID(locationID int) (*db.ParkingLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locations[locationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (f *fakeLocationStore) Delete(locationID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locations, locationID)
	return nil
}

func (f *fakeLocationStore) Search(term, city string) ([]db.ParkingLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.ParkingLocation
	for _, l := range f.locations {
		if l.IsActive && (city == "" || l.City == city) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLocationStore) ListByOwner(ownerID int) ([]db.ParkingLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.ParkingLocation
	for _, l := range f.locations {
		if l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLocationStore) ListAll() ([]db.ParkingLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.ParkingLocation
	for _, l := range f.locations {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeLocationStore) GetAvailability(locationID int) ([]db.SlotAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locations[locationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return []db.SlotAvailability{
		{
			ParkingLocationID: locationID,
			VehicleClass:      db.ClassTwoWheeler,
			AvailableSlots:    f.available[poolKey(locationID, db.ClassTwoWheeler)],
			TotalSlots:        l.TwoWheelerCapacity,
		},
		{
			ParkingLocationID: locationID,
			VehicleClass:      db.ClassFourWheeler,
			AvailableSlots:    f.available[poolKey(locationID, db.ClassFourWheeler)],
			TotalSlots:        l.FourWheelerCapacity,
		},
	}, nil
}

type fakeTimeSlotStore struct {
	mu        sync.Mutex
	slots     []db.TimeSlot
	exhausted map[string]int
}

func newFakeTimeSlotStore() *fakeTimeSlotStore {
	return &fakeTimeSlotStore{exhausted: make(map[string]int)}
}

func (f *fakeTimeSlotStore) ListForDate(locationID int, class, date string) ([]db.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.TimeSlot
	for _, s := range f.slots {
		if s.ParkingLocationID == locationID && s.VehicleClass == class && s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeTimeSlotStore) ExhaustedCountsByDate(locationID int, class, from, to string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.exhausted))
	for k, v := range f.exhausted {
		out[k] = v
	}
	return out, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*db.User
	otps   map[int]*db.OtpVerification // one per user, latest wins
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int]*db.User), otps: make(map[int]*db.OtpVerification)}
}

func (f *fakeUserStore) Create(u *db.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperrors.New(apperrors.Conflict, "email already registered")
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.IsActive = true
	clone := *u
	f.users[u.ID] = &clone
	return nil
}

func (f *fakeUserStore) GetByID(userID int) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserStore) UpdateProfile(userID int, name, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Name, u.Phone = name, phone
	return nil
}

func (f *fakeUserStore) UpdatePassword(userID int, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStore) MarkVerified(userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeUserStore) ToggleActive(userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	u.IsActive = !u.IsActive
	return u.IsActive, nil
}

func (f *fakeUserStore) ListByRole(role string) ([]db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) ReplaceOtp(o *db.OtpVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.CreatedAt = time.Now().UTC()
	clone := *o
	f.otps[o.UserID] = &clone
	return nil
}

func (f *fakeUserStore) LatestOtp(userID int, otpType string) (*db.OtpVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.otps[userID]
	if !ok || o.Type != otpType {
		return nil, nil
	}
	clone := *o
	return &clone, nil
}

func (f *fakeUserStore) VerifyOtp(userID int, otp, otpType string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.otps[userID]
	if !ok {
		return false, nil
	}
	return o.Otp == otp && o.Type == otpType && now.Before(o.ExpiresAt), nil
}

func (f *fakeUserStore) DeleteExpiredOtps(now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, o := range f.otps {
		if !now.Before(o.ExpiresAt) {
			delete(f.otps, id)
			n++
		}
	}
	return n, nil
}

type notification struct {
	kind  string
	email string
	body  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) NotifyOtp(email, name, phone, otp, purpose string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{kind: "otp", email: email, body: otp})
}

func (f *fakeNotifier) NotifyBookingStatus(email, name, plate, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{kind: "booking", email: email, body: status})
}

func (f *fakeNotifier) lastOtp() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == "otp" {
			return f.sent[i].body
		}
	}
	return ""
}
