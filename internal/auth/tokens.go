package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

// Token errors
var (
	errInvalidToken = errors.New("invalid token")
	errExpiredToken = errors.New("token expired")
	errMissingClaim = errors.New("missing required claim")
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Handle      string `json:"handle"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// signer produces and verifies HS256 tokens for one secret.
type signer struct {
	secret []byte
}

func (s signer) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parse validates signature, algorithm and expiry and returns the subject.
func (s signer) parse(tokenString string, claims jwt.Claims) (models.UserID, error) {
	if tokenString == "" {
		return "", errInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errExpiredToken
		}
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid {
		return "", errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: sub", errMissingClaim)
	}
	return models.UserID(sub), nil
}

func registeredClaims(subject models.UserID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   string(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

// hashToken is the digest kept in storage in place of the raw refresh token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
