package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

const userColumns = `id, name, email, phone, password_hash, role, is_verified, is_active,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.IsVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(u *db.User) error {
	err := r.DB.QueryRow(
		`INSERT INTO users (name, email, phone, password_hash, role, is_verified, is_active)
		 VALUES ($1, $2, $3, $4, $5, FALSE, TRUE)
		 RETURNING id, is_verified, is_active, created_at, updated_at`,
		u.Name, u.Email, u.Phone, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.IsVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.Conflict, "email or phone already registered")
		}
		return apperrors.Failed("insert user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(userID int) (*db.User, error) {
	u, err := scanUser(r.DB.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.NotFound, "user not found")
		}
		return nil, apperrors.Failed("query user", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(email string) (*db.User, error) {
	u, err := scanUser(r.DB.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.NotFound, "user not found")
		}
		return nil, apperrors.Failed("query user", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(userID int, name, phone string) error {
	_, err := r.DB.Exec(
		`UPDATE users SET name = $1, phone = $2, updated_at = NOW() WHERE id = $3`,
		name, phone, userID,
	)
	if err != nil {
		return apperrors.Failed("update profile", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(userID int, passwordHash string) error {
	_, err := r.DB.Exec(
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return apperrors.Failed("update password", err)
	}
	return nil
}

func (r *UserRepository) MarkVerified(userID int) error {
	_, err := r.DB.Exec(
		`UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID,
	)
	if err != nil {
		return apperrors.Failed("mark user verified", err)
	}
	return nil
}

func (r *UserRepository) ToggleActive(userID int) (bool, error) {
	var active bool
	err := r.DB.QueryRow(
		`UPDATE users SET is_active = NOT is_active, updated_at = NOW()
		 WHERE id = $1 RETURNING is_active`,
		userID,
	).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.New(apperrors.NotFound, "user not found")
		}
		return false, apperrors.Failed("toggle user status", err)
	}
	return active, nil
}

func (r *UserRepository) ListByRole(role string) ([]db.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, apperrors.Failed("query users", err)
	}
	defer rows.Close()

	var users []db.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.Failed("scan user", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ReplaceOtp deletes any outstanding OTP of the same type and stores the new
// one.
func (r *UserRepository) ReplaceOtp(o *db.OtpVerification) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return apperrors.Failed("begin otp replace", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM otp_verifications WHERE user_id = $1 AND type = $2`,
		o.UserID, o.Type,
	); err != nil {
		return apperrors.Failed("delete old otps", err)
	}
	err = tx.QueryRow(
		`INSERT INTO otp_verifications (user_id, otp, type, expires_at)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		o.UserID, o.Otp, o.Type, o.ExpiresAt,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return apperrors.Failed("insert otp", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Failed("commit otp replace", err)
	}
	return nil
}

// LatestOtp returns the most recent OTP of the given type, or nil.
func (r *UserRepository) LatestOtp(userID int, otpType string) (*db.OtpVerification, error) {
	var o db.OtpVerification
	err := r.DB.QueryRow(
		`SELECT id, user_id, otp, type, expires_at, created_at
		 FROM otp_verifications
		 WHERE user_id = $1 AND type = $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, otpType,
	).Scan(&o.ID, &o.UserID, &o.Otp, &o.Type, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Failed("query otp", err)
	}
	return &o, nil
}

// VerifyOtp reports whether a matching, unexpired OTP exists.
func (r *UserRepository) VerifyOtp(userID int, otp, otpType string, now time.Time) (bool, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM otp_verifications
		 WHERE user_id = $1 AND otp = $2 AND type = $3 AND expires_at > $4`,
		userID, otp, otpType, now,
	).Scan(&count)
	if err != nil {
		return false, apperrors.Failed("verify otp", err)
	}
	return count > 0, nil
}

// DeleteExpiredOtps removes OTPs past their expiry, returning how many went.
func (r *UserRepository) DeleteExpiredOtps(now time.Time) (int64, error) {
	result, err := r.DB.Exec(`DELETE FROM otp_verifications WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, apperrors.Failed("delete expired otps", err)
	}
	return result.RowsAffected()
}
