package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"tecnicosrd/config"

	"github.com/golang-jwt/jwt"
)

// TokenClaims is the identity carried by an access token.
type TokenClaims struct {
	UserID   string
	Email    string
	Role     string
	DeviceID string
}

func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		secret = "TECNICOSRD_DEV_SECRET"
	}
	return []byte(secret)
}

// GenerateToken creates a signed JWT for the user on the given device.
// The token expires after the specified duration.
func GenerateToken(c TokenClaims, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    c.UserID,
		"email":  c.Email,
		"role":   c.Role,
		"device": c.DeviceID,
		"iat":    now.Unix(),
		"exp":    now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// ParseToken validates the token and extracts its claims.
func ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}
	out := &TokenClaims{UserID: sub}
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims["role"].(string)
	out.DeviceID, _ = claims["device"].(string)
	return out, nil
}
