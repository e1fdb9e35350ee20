// Package auth guards the control API. The agent has no user accounts:
// one device token, minted at startup for the configured user and
// device, is the whole credential surface.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const deviceTokenTTL = 30 * 24 * time.Hour

type Claims struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// IssueDeviceToken mints the long-lived bearer token the companion UI
// presents on every mutating call.
func (i *Issuer) IssueDeviceToken(userID, deviceID string) (string, error) {
	return i.signToken(userID, deviceID, deviceTokenTTL)
}

func (i *Issuer) signToken(userID, deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
