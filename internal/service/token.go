package service

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenIssuer mints the opaque check-in tokens (QR payloads) bound 1:1 to
// bookings. A token is a v4 UUID (122 random bits) plus the mint time in unix
// seconds, so it is practically unique and says nothing about the booking.
type TokenIssuer struct{}

func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{}
}

func (TokenIssuer) Mint() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw + strconv.FormatInt(time.Now().Unix(), 10)
}

// Validate compares a presented token against the stored one.
func (TokenIssuer) Validate(presented, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
