package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4" // Import JWT library
	"golang.org/x/crypto/bcrypt"   // Import bcrypt
)

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid or expired token")
)

const tokenIssuer = "trainerscribe"

type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, err error)
	// ParseToken verifies a bearer token and returns the admin email it was issued to.
	ParseToken(token string) (subject string, err error)
}

// authService authenticates the single back-office administrator configured
// by email and bcrypt hash.
type authService struct {
	adminEmail        string
	adminPasswordHash string
	jwtSecret         string
	jwtExpiration     time.Duration
	now               func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(adminEmail, adminPasswordHash, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1 // Default to 1 hour if not set properly
	}
	return &authService{
		adminEmail:        strings.ToLower(strings.TrimSpace(adminEmail)),
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExpiration,
		now:               time.Now,
	}
}

// Login checks the admin credentials and issues a signed token.
func (s *authService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	if email == "" || password == "" {
		return "", time.Time{}, ErrAuthenticationFailed
	}
	if s.adminPasswordHash == "" || !strings.EqualFold(strings.TrimSpace(email), s.adminEmail) {
		return "", time.Time{}, ErrAuthenticationFailed
	}
	// Password mismatch (bcrypt returns specific error, but we map to general auth failure)
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrAuthenticationFailed
	}

	token, expiresAt, err := s.generateJWT(s.adminEmail)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return token, expiresAt, nil
}

// --- JWT Helper ---

func (s *authService) generateJWT(subject string) (string, time.Time, error) {
	now := s.now()
	expirationTime := now.Add(s.jwtExpiration)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signedToken, expirationTime, nil
}

func (s *authService) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect: HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != tokenIssuer || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
