package user

import (
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenTTL keeps a device signed in across a typical offline stretch
// so queued progress can still sync without a fresh login.
const defaultTokenTTL = 72 * time.Hour

type JwtCustomClaims struct {
	Id uint `json:"id"`
	jwt.RegisteredClaims
}

// GenerateJWT is a var so tests can stub token issuance.
var GenerateJWT = generateJWT

func generateJWT(id uint) (string, error) {
	claims := JwtCustomClaims{
		Id: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// tokenTTL honors JWT_TTL_HOURS when set to a positive integer.
func tokenTTL() time.Duration {
	if raw := os.Getenv("JWT_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return defaultTokenTTL
}
