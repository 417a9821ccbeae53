package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

const (
	OtpTypeRegistration  = "registration"
	OtpTypePasswordReset = "password_reset"

	otpTTL         = 10 * time.Minute
	otpResendAfter = time.Minute
	tokenTTL       = 24 * time.Hour
)

// AuthService handles registration, OTP verification and password-based
// login. It issues the JWTs the auth middleware verifies.
type AuthService struct {
	users     UserStore
	notifier  Notifier
	jwtSecret string
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewAuthService(users UserStore, notifier Notifier, jwtSecret string, log *zap.SugaredLogger) *AuthService {
	return &AuthService{users: users, notifier: notifier, jwtSecret: jwtSecret, log: log, now: time.Now}
}

// Register creates an unverified account and sends a registration OTP.
func (s *AuthService) Register(name, email, phone, password, role string) (*db.User, error) {
	if role != db.RoleUser && role != db.RoleOwner {
		return nil, apperrors.New(apperrors.Forbidden, "role must be user or owner")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Failed("hash password", err)
	}

	user := &db.User{Name: name, Email: email, Phone: phone, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	if err := s.issueOtp(user, OtpTypeRegistration); err != nil {
		return nil, err
	}
	s.log.Infow("user registered", "user_id", user.ID, "role", role)
	return user, nil
}

// VerifyOtp confirms a registration OTP and marks the account verified.
func (s *AuthService) VerifyOtp(email, otp string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	ok, err := s.users.VerifyOtp(user.ID, otp, OtpTypeRegistration, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.Unauthorized, "invalid or expired OTP")
	}
	return s.users.MarkVerified(user.ID)
}

// ResendOtp re-sends the last OTP if it is fresh, otherwise mints a new one.
func (s *AuthService) ResendOtp(email, otpType string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	recent, err := s.users.LatestOtp(user.ID, otpType)
	if err != nil {
		return err
	}
	if recent != nil && s.now().UTC().Sub(recent.CreatedAt) < otpResendAfter {
		s.notifier.NotifyOtp(user.Email, user.Name, user.Phone, recent.Otp, otpPurpose(otpType))
		return nil
	}
	return s.issueOtp(user, otpType)
}

// Login checks credentials and returns a signed bearer token.
func (s *AuthService) Login(email, password string) (string, *db.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the account exists.
		return "", nil, apperrors.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, apperrors.ErrUnauthorized
	}
	if !user.IsVerified {
		return "", nil, apperrors.New(apperrors.Unauthorized, "account is not verified")
	}
	if !user.IsActive {
		return "", nil, apperrors.New(apperrors.Unauthorized, "account is deactivated")
	}

	token, err := auth.NewToken(s.jwtSecret, user.ID, user.Role, tokenTTL)
	if err != nil {
		return "", nil, apperrors.Failed("sign token", err)
	}
	return token, user, nil
}

// ForgotPassword sends a password-reset OTP.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	return s.issueOtp(user, OtpTypePasswordReset)
}

// ResetPassword sets a new password after OTP verification.
func (s *AuthService) ResetPassword(email, otp, newPassword string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	ok, err := s.users.VerifyOtp(user.ID, otp, OtpTypePasswordReset, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.Unauthorized, "invalid or expired OTP")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Failed("hash password", err)
	}
	return s.users.UpdatePassword(user.ID, string(hash))
}

// ChangePassword rotates the password for a logged-in user.
func (s *AuthService) ChangePassword(userID int, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperrors.New(apperrors.Unauthorized, "current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Failed("hash password", err)
	}
	return s.users.UpdatePassword(userID, string(hash))
}

func (s *AuthService) Profile(userID int) (*db.User, error) {
	return s.users.GetByID(userID)
}

func (s *AuthService) UpdateProfile(userID int, name, phone string) error {
	return s.users.UpdateProfile(userID, name, phone)
}

func (s *AuthService) issueOtp(user *db.User, otpType string) error {
	otp, err := generateOtp()
	if err != nil {
		return apperrors.Failed("generate otp", err)
	}
	record := &db.OtpVerification{
		UserID:    user.ID,
		Otp:       otp,
		Type:      otpType,
		ExpiresAt: s.now().UTC().Add(otpTTL),
	}
	if err := s.users.ReplaceOtp(record); err != nil {
		return err
	}
	s.notifier.NotifyOtp(user.Email, user.Name, user.Phone, otp, otpPurpose(otpType))
	return nil
}

// generateOtp returns a random 6-digit code.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func otpPurpose(otpType string) string {
	if otpType == OtpTypePasswordReset {
		return "password reset"
	}
	return "verification"
}
