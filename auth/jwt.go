package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry pulls the exp claim out of an access token without verifying
// the signature. The claim only drives refresh scheduling; the backend is the
// security boundary and validates tokens on every request.
func TokenExpiry(tokenString string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
