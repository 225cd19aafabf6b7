package opentok

import (
	"time"

	"stagecast/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// projectJWT signs the project credential used on the X-OPENTOK-AUTH header.
func projectJWT(apiKey, apiSecret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": apiKey,
		"ist": "project",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"jti": uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(apiSecret))
}

// tokenRole maps the application role to the vendor permission level.
func tokenRole(role domain.Role) string {
	switch role {
	case domain.RoleHost:
		return "moderator"
	case domain.RoleGuest:
		return "publisher"
	default:
		return "subscriber"
	}
}

// clientJWT signs a per-participant connection token for a session.
func clientJWT(apiKey, apiSecret string, sessionID domain.SessionID, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":        apiKey,
		"ist":        "project",
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"jti":        uuid.New().String(),
		"session_id": string(sessionID),
		"role":       tokenRole(role),
		"scope":      "session.connect",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(apiSecret))
}
