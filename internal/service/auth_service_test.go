package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
	"github.com/Keyur1433/digipark-backend/internal/db"
)

const testSecret = "test-secret"

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore, *fakeNotifier) {
	t.Helper()
	users := newFakeUserStore()
	notifier := &fakeNotifier{}
	svc := NewAuthService(users, notifier, testSecret, zap.NewNop().Sugar())
	return svc, users, notifier
}

func register(t *testing.T, svc *AuthService) *db.User {
	t.Helper()
	user, err := svc.Register("Asha", "asha@example.com", "+911234567890", "hunter22", db.RoleUser)
	require.NoError(t, err)
	return user
}

func TestRegisterSendsOtp(t *testing.T) {
	svc, users, notifier := newAuthFixture(t)

	user := register(t, svc)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	otp := notifier.lastOtp()
	require.Len(t, otp, 6)

	stored, err := users.LatestOtp(user.ID, OtpTypeRegistration)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, otp, stored.Otp)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register("Eve", "eve@example.com", "+910000000000", "pw", db.RoleAdmin)
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))
}

func TestVerifyOtp(t *testing.T) {
	svc, users, notifier := newAuthFixture(t)
	user := register(t, svc)

	err := svc.VerifyOtp(user.Email, "000000")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	require.NoError(t, svc.VerifyOtp(user.Email, notifier.lastOtp()))

	verified, err := users.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
}

func TestVerifyOtpExpired(t *testing.T) {
	svc, _, notifier := newAuthFixture(t)
	user := register(t, svc)

	svc.now = func() time.Time { return time.Now().Add(otpTTL + time.Minute) }
	err := svc.VerifyOtp(user.Email, notifier.lastOtp())
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
}

func TestResendOtpThrottle(t *testing.T) {
	svc, _, notifier := newAuthFixture(t)
	user := register(t, svc)
	first := notifier.lastOtp()

	// Within the throttle window the same code is re-sent.
	require.NoError(t, svc.ResendOtp(user.Email, OtpTypeRegistration))
	assert.Equal(t, first, notifier.lastOtp())

	// After the window a fresh code is minted.
	svc.now = func() time.Time { return time.Now().Add(2 * otpResendAfter) }
	require.NoError(t, svc.ResendOtp(user.Email, OtpTypeRegistration))
	assert.NotEqual(t, first, notifier.lastOtp())
}

func TestLogin(t *testing.T) {
	svc, _, notifier := newAuthFixture(t)
	user := register(t, svc)

	// Unverified accounts cannot log in.
	_, _, err := svc.Login(user.Email, "hunter22")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	require.NoError(t, svc.VerifyOtp(user.Email, notifier.lastOtp()))

	_, _, err = svc.Login(user.Email, "wrong-password")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, _, err = svc.Login("nobody@example.com", "hunter22")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	token, loggedIn, err := svc.Login(user.Email, "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(user.ID), claims["user_id"])
	assert.Equal(t, db.RoleUser, claims["role"])
}

func TestLoginDeactivated(t *testing.T) {
	svc, users, notifier := newAuthFixture(t)
	user := register(t, svc)
	require.NoError(t, svc.VerifyOtp(user.Email, notifier.lastOtp()))

	_, err := users.ToggleActive(user.ID)
	require.NoError(t, err)

	_, _, err = svc.Login(user.Email, "hunter22")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, notifier := newAuthFixture(t)
	user := register(t, svc)
	require.NoError(t, svc.VerifyOtp(user.Email, notifier.lastOtp()))

	require.NoError(t, svc.ForgotPassword(user.Email))
	resetOtp := notifier.lastOtp()

	err := svc.ResetPassword(user.Email, "999999", "new-password")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	require.NoError(t, svc.ResetPassword(user.Email, resetOtp, "new-password"))

	_, _, err = svc.Login(user.Email, "hunter22")
	assert.Error(t, err)
	_, _, err = svc.Login(user.Email, "new-password")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _, notifier := newAuthFixture(t)
	user := register(t, svc)
	require.NoError(t, svc.VerifyOtp(user.Email, notifier.lastOtp()))

	err := svc.ChangePassword(user.ID, "wrong", "next-password")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	require.NoError(t, svc.ChangePassword(user.ID, "hunter22", "next-password"))

	_, _, err = svc.Login(user.Email, "next-password")
	assert.NoError(t, err)
}
