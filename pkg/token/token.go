// Package token signs access tokens and derives confirmation codes. Both keys
// come from one root secret through HKDF so neither can be used as the other.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const codeLength = 20

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrInvalidCode  = errors.New("invalid confirmation code")
)

// CodeState is the account state a confirmation code is bound to. Changing
// any field invalidates every code issued before.
type CodeState struct {
	UserID      uint
	Email       string
	Username    string
	IssuedAt    *time.Time
	LastLoginAt *time.Time
}

type Manager struct {
	signingKey []byte
	codeKey    []byte
	ttl        time.Duration
	codeTTL    time.Duration
	now        func() time.Time
}

func NewManager(secret string, ttl, codeTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token: empty secret")
	}
	signingKey, err := deriveKey(secret, "yamdb access token")
	if err != nil {
		return nil, err
	}
	codeKey, err := deriveKey(secret, "yamdb confirmation code")
	if err != nil {
		return nil, err
	}
	return &Manager{
		signingKey: signingKey,
		codeKey:    codeKey,
		ttl:        ttl,
		codeTTL:    codeTTL,
		now:        time.Now,
	}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("token: derive key: %w", err)
	}
	return key, nil
}

// Issue returns a signed access token for the user and its expiry.
func (m *Manager) Issue(userID uint) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a token and returns the user id it was issued for.
func (m *Manager) Parse(tokenString string) (uint, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Code derives the confirmation code for the given state. It returns an
// error when no code is outstanding.
func (m *Manager) Code(state CodeState) (string, error) {
	if state.IssuedAt == nil {
		return "", ErrInvalidCode
	}

	mac := hmac.New(sha256.New, m.codeKey)
	fmt.Fprintf(mac, "%d|%s|%s|%d|%d",
		state.UserID,
		state.Email,
		state.Username,
		unixOrZero(state.IssuedAt),
		unixOrZero(state.LastLoginAt),
	)
	return hex.EncodeToString(mac.Sum(nil))[:codeLength], nil
}

// VerifyCode checks a submitted code in constant time and rejects codes
// older than the configured lifetime.
func (m *Manager) VerifyCode(state CodeState, code string) error {
	expected, err := m.Code(state)
	if err != nil {
		return err
	}
	if m.codeTTL > 0 && m.now().After(state.IssuedAt.Add(m.codeTTL)) {
		return ErrInvalidCode
	}
	if !hmac.Equal([]byte(expected), []byte(code)) {
		return ErrInvalidCode
	}
	return nil
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	// Postgres keeps microseconds; anything finer would not survive a reload.
	return t.UnixMicro()
}
