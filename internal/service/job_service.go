package service

import (
	"time"

	"go.uber.org/zap"
)

// JobStore is implemented by repository.JobRepository.
type JobStore interface {
	OverdueCheckedInIDs(now time.Time) ([]int, error)
}

// JobService holds the periodic maintenance sweeps the cron scheduler runs.
type JobService struct {
	jobs     JobStore
	bookings BookingStore
	users    UserStore
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewJobService(jobs JobStore, bookings BookingStore, users UserStore, log *zap.SugaredLogger) *JobService {
	return &JobService{jobs: jobs, bookings: bookings, users: users, log: log, now: time.Now}
}

// CompleteOverdueBookings closes checked-in bookings whose check-out time has
// passed, releasing their slots. Failures on individual bookings are logged
// and skipped so one bad row does not block the sweep.
func (s *JobService) CompleteOverdueBookings() {
	ids, err := s.jobs.OverdueCheckedInIDs(s.now().UTC())
	if err != nil {
		s.log.Errorw("overdue booking sweep failed", "error", err)
		return
	}
	completed := 0
	for _, id := range ids {
		if err := s.bookings.Complete(id); err != nil {
			s.log.Warnw("auto-complete failed", "booking_id", id, "error", err)
			continue
		}
		completed++
	}
	if completed > 0 {
		s.log.Infow("auto-completed overdue bookings", "count", completed)
	}
}

// PurgeExpiredOtps deletes OTP rows past their expiry.
func (s *JobService) PurgeExpiredOtps() {
	n, err := s.users.DeleteExpiredOtps(s.now().UTC())
	if err != nil {
		s.log.Errorw("otp purge failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Infow("purged expired otps", "count", n)
	}
}
