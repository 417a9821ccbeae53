package repository

import (
	"database/sql"
	"time"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

// JobRepository backs the cron sweeps.
type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// OverdueCheckedInIDs lists checked-in bookings whose check-out time has
// passed. The job service completes them one by one through the lifecycle
// manager so counters are released correctly.
func (r *JobRepository) OverdueCheckedInIDs(now time.Time) ([]int, error) {
	rows, err := r.DB.Query(
		`SELECT id FROM parking_bookings WHERE status = $1 AND check_out_time < $2`,
		db.StatusCheckedIn, now,
	)
	if err != nil {
		return nil, apperrors.Failed("query overdue bookings", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Failed("scan overdue booking id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
