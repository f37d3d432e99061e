package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidPassphrase signals a wrong reviewer passphrase.
	ErrInvalidPassphrase = errors.New("auth: invalid reviewer passphrase")
	// ErrInvalidToken signals a token that failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Service issues and verifies signed role-session tokens. The role a session
// carries is what gets recorded in claim audit fields; issuing a reviewer
// role can additionally be gated behind a shared passphrase so the audited
// role is not purely self-reported.
type Service struct {
	jwtSecret    []byte
	reviewerHash []byte
	sessionTTL   time.Duration
}

// NewService creates a role-session service. An empty reviewerPassphrase
// disables the reviewer gate entirely.
func NewService(jwtSecret, reviewerPassphrase string) (*Service, error) {
	s := &Service{
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: time.Hour,
	}
	if reviewerPassphrase != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(reviewerPassphrase), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash reviewer passphrase: %w", err)
		}
		s.reviewerHash = hash
	}
	return s, nil
}

// SelectRole validates the requested role and returns a signed session token
// for it. A blank role falls back to Lecturer. Reviewer roles require the
// configured passphrase when the gate is enabled.
func (s *Service) SelectRole(role Role, passphrase string) (string, Role, error) {
	role = Role(strings.TrimSpace(string(role)))
	if role == "" {
		role = RoleLecturer
	}
	if !isValidRole(role) {
		return "", "", fmt.Errorf("auth: invalid role %q", role)
	}

	if role.IsReviewer() && len(s.reviewerHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(s.reviewerHash, []byte(passphrase)); err != nil {
			return "", "", ErrInvalidPassphrase
		}
	}

	token, err := s.generateToken(role)
	if err != nil {
		return "", "", fmt.Errorf("auth: generate token: %w", err)
	}

	return token, role, nil
}

// VerifyToken validates a session token and returns the role it carries.
func (s *Service) VerifyToken(tokenString string) (Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("auth: missing role in token")
	}
	role := Role(roleStr)
	if !isValidRole(role) {
		return "", fmt.Errorf("auth: invalid role %q in token", roleStr)
	}

	return role, nil
}

func (s *Service) generateToken(role Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"role": string(role),
		"exp":  now.Add(s.sessionTTL).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
