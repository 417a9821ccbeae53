package service

import (
	"fmt"
	"time"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

const (
	windowMinutes = 30
	dateHorizon   = 30 // days offered for advance booking
)

// Window is one half-hour slot in a day's calendar.
type Window struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	AvailableSlots int    `json:"available_slots"`
	IsAvailable    bool   `json:"is_available"`
}

// DateStatus summarizes one bookable date: available, partial (some window
// already sold out) or unavailable (class capacity is zero).
type DateStatus struct {
	Date      string `json:"date"`
	Day       string `json:"day"`
	DayNumber int    `json:"day_number"`
	Month     string `json:"month"`
	Status    string `json:"status"`
}

// TimeSlotService generates the advance-booking calendar. It merges persisted
// time-slot counters over generated defaults and never mutates state; windows
// materialize only when a booking consumes them.
type TimeSlotService struct {
	slots     TimeSlotStore
	locations LocationStore
	now       func() time.Time
}

func NewTimeSlotService(slots TimeSlotStore, locations LocationStore) *TimeSlotService {
	return &TimeSlotService{slots: slots, locations: locations, now: time.Now}
}

// ListWindows returns the half-hour windows for one location, class and date,
// in chronological order. For today, windows that already started are omitted.
// A window without a persisted row is fully available at the location's class
// capacity.
func (s *TimeSlotService) ListWindows(locationID int, class, date string) ([]Window, error) {
	location, err := s.locations.GetByID(locationID)
	if err != nil {
		return nil, err
	}
	if !location.IsActive {
		return nil, apperrors.ErrInactiveLocation
	}

	persisted, err := s.slots.ListForDate(locationID, class, date)
	if err != nil {
		return nil, err
	}
	byWindow := make(map[string]db.TimeSlot, len(persisted))
	for _, slot := range persisted {
		byWindow[slot.StartTime+"-"+slot.EndTime] = slot
	}

	capacity := location.Capacity(class)
	now := s.now().UTC()
	isToday := date == now.Format("2006-01-02")
	minutesNow := now.Hour()*60 + now.Minute()

	windows := make([]Window, 0, 24*60/windowMinutes)
	for startMin := 0; startMin < 24*60; startMin += windowMinutes {
		if isToday && startMin < minutesNow {
			continue
		}
		start := minutesLabel(startMin)
		end := minutesLabel(startMin + windowMinutes)

		available := capacity
		if slot, ok := byWindow[start+"-"+end]; ok {
			available = slot.AvailableSlots
		}
		windows = append(windows, Window{
			StartTime:      start,
			EndTime:        end,
			AvailableSlots: available,
			IsAvailable:    available > 0,
		})
	}
	return windows, nil
}

// ListBookableDates reports the next 30 days' status for a location and
// class.
func (s *TimeSlotService) ListBookableDates(locationID int, class string) ([]DateStatus, error) {
	location, err := s.locations.GetByID(locationID)
	if err != nil {
		return nil, err
	}
	if !location.IsActive {
		return nil, apperrors.ErrInactiveLocation
	}

	capacity := location.Capacity(class)
	today := s.now().UTC().Truncate(24 * time.Hour)
	from := today.Format("2006-01-02")
	to := today.AddDate(0, 0, dateHorizon-1).Format("2006-01-02")

	exhausted, err := s.slots.ExhaustedCountsByDate(locationID, class, from, to)
	if err != nil {
		return nil, err
	}

	dates := make([]DateStatus, 0, dateHorizon)
	for i := 0; i < dateHorizon; i++ {
		day := today.AddDate(0, 0, i)
		dateStr := day.Format("2006-01-02")

		status := "available"
		if capacity <= 0 {
			status = "unavailable"
		} else if exhausted[dateStr] > 0 {
			status = "partial"
		}
		dates = append(dates, DateStatus{
			Date:      dateStr,
			Day:       day.Format("Mon"),
			DayNumber: day.Day(),
			Month:     day.Format("Jan"),
			Status:    status,
		})
	}
	return dates, nil
}

// minutesLabel renders minutes-since-midnight as HH:MM; 24:00 wraps to 00:00.
func minutesLabel(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
