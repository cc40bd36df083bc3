package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// Token format: base64url(JSON payload) + "." + base64url(HMAC-SHA256 sig).
// The two-segment shape is a wire contract with the admin front end, which
// decodes the payload client-side.

// Claims is the signed token payload.
type Claims struct {
	UserID     string `json:"userId"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Exp        int64  `json:"exp"`
}

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for structurally valid, expired tokens.
	ErrTokenExpired = errors.New("token expired")
)

// GenerateToken signs a bearer token for the given user.
func GenerateToken(user models.User, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:     user.ID,
		Role:       user.Role,
		Department: user.Department,
		Exp:        time.Now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + sign(encoded, secret), nil
}

// ParseToken verifies the signature (constant time) and expiry, returning
// the claims.
func ParseToken(token, secret string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil, ErrInvalidToken
	}
	expected := sign(parts[0], secret)
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return nil, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Exp <= time.Now().Unix() {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

func sign(encodedPayload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
