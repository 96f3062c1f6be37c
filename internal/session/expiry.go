package session

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry prefers the server's expires_in, then the token's own exp claim,
// then the configured fallback lifetime.
func tokenExpiry(now time.Time, accessToken string, expiresIn int64, fallback time.Duration) time.Time {
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	if exp := jwtExpiry(accessToken); !exp.IsZero() {
		return exp
	}
	return now.Add(fallback)
}

// jwtExpiry reads exp without verifying the signature; the backend verifies.
func jwtExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func formatExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseExpiry(s string) (time.Time, bool) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
