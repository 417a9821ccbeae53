package service

import (
	"time"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/repository"
)

// ReportStore is implemented by repository.ReportRepository.
type ReportStore interface {
	Revenue(ownerID int, granularity string, from, to time.Time) ([]repository.RevenuePoint, error)
	AdminDashboard() (*repository.AdminStats, error)
	OwnerDashboard(ownerID int, now time.Time) (*repository.OwnerStats, error)
}

type ReportService struct {
	reports ReportStore
	now     func() time.Time
}

func NewReportService(reports ReportStore) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

var defaultRanges = map[string]time.Duration{
	"daily":   30 * 24 * time.Hour,
	"weekly":  12 * 7 * 24 * time.Hour,
	"monthly": 365 * 24 * time.Hour,
	"yearly":  5 * 365 * 24 * time.Hour,
}

// Revenue returns per-period revenue for an owner, or the whole platform when
// ownerID is 0. Empty from/to fall back to a window sized to the granularity.
func (s *ReportService) Revenue(ownerID int, granularity, from, to string) ([]repository.RevenuePoint, error) {
	span, ok := defaultRanges[granularity]
	if !ok {
		return nil, apperrors.New(apperrors.OperationFailed, "granularity must be daily, weekly, monthly or yearly")
	}

	end := s.now().UTC()
	if to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, apperrors.New(apperrors.OperationFailed, "to must be YYYY-MM-DD")
		}
		end = parsed.Add(24 * time.Hour)
	}
	start := end.Add(-span)
	if from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, apperrors.New(apperrors.OperationFailed, "from must be YYYY-MM-DD")
		}
		start = parsed
	}
	if !start.Before(end) {
		return nil, apperrors.New(apperrors.OperationFailed, "from must be before to")
	}

	points, err := s.reports.Revenue(ownerID, granularity, start, end)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []repository.RevenuePoint{}
	}
	return points, nil
}

func (s *ReportService) AdminDashboard() (*repository.AdminStats, error) {
	return s.reports.AdminDashboard()
}

func (s *ReportService) OwnerDashboard(ownerID int) (*repository.OwnerStats, error) {
	return s.reports.OwnerDashboard(ownerID, s.now().UTC())
}
