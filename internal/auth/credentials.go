package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingKey   = errors.New("token signing key is not set")
)

const TokenType = "bearer"

// Claims identify the caller. Subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	Admin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// Credentials hashes passwords and issues/validates HS256 access tokens.
type Credentials struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCredentials(secret string, ttl time.Duration) *Credentials {
	return &Credentials{key: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *Credentials) Hash(password string) (string, error) {
	return HashPassword(password)
}

func (c *Credentials) Verify(password, digest string) bool {
	return CheckPasswordHash(password, digest)
}

// IssueToken signs a token for the user that expires after the configured ttl.
func (c *Credentials) IssueToken(userID, email string, admin bool) (string, error) {
	if len(c.key) == 0 {
		return "", ErrMissingKey
	}

	now := c.now()
	claims := Claims{
		Email: email,
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

func (c *Credentials) ValidateToken(tokenStr string) (*Claims, error) {
	if len(c.key) == 0 {
		return nil, ErrMissingKey
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return c.key, nil
		},
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
