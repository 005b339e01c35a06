package auth

import (
	"time"

	"cakedelight/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// HS256でアクセストークンを発行する
type JWTIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func NewJWTIssuer(secret string, accessTTL time.Duration) *JWTIssuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWTIssuer{secret: []byte(secret), accessTTL: accessTTL}
}

func (i *JWTIssuer) Issue(userID string, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"tv":   tokenVersion,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// uuidでIDを作る
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
