// Package auth issues and validates the platform's bearer tokens and runs
// the signup/login flow against the account ledger.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/id"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	startingLevel     = "Beginner"
	startingVIPStatus = "Standard"
)

type Service struct {
	ledger      *accounts.Service
	issuer      string
	secret      []byte
	ttl         time.Duration
	demoBalance decimal.Decimal
}

func NewService(ledger *accounts.Service, issuer string, secret []byte, ttl time.Duration, demoBalance decimal.Decimal) *Service {
	return &Service{ledger: ledger, issuer: issuer, secret: secret, ttl: ttl, demoBalance: demoBalance}
}

type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Country   string
}

// Register creates the user with the starting demo balance and an empty
// live balance, then signs a token for the new session.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, *model.Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return "", nil, errors.New("email and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	acc := &model.Account{
		ID:           id.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Country:      req.Country,
		Level:        startingLevel,
		VIPStatus:    startingVIPStatus,
		Balance: map[types.AccountType]decimal.Decimal{
			types.AccountTypeDemo: s.demoBalance,
			types.AccountTypeLive: decimal.Zero,
		},
		WinRate:  decimal.Zero,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.ledger.Create(ctx, acc); err != nil {
		return "", nil, err
	}
	token, err := s.signToken(acc.ID)
	if err != nil {
		return "", nil, err
	}
	return token, acc, nil
}

// Login verifies the password and signs a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.Account, error) {
	acc, err := s.ledger.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := s.ledger.TouchLogin(ctx, acc.ID); err != nil {
		return "", nil, err
	}
	token, err := s.signToken(acc.ID)
	if err != nil {
		return "", nil, err
	}
	return token, acc, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if next == "" {
		return errors.New("new password required")
	}
	acc, err := s.ledger.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.ledger.SetPasswordHash(ctx, userID, string(hash))
}

func (s *Service) signToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *Service) ParseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Issuer != s.issuer {
		return "", errors.New("invalid issuer")
	}
	if claims.Subject == "" {
		return "", errors.New("invalid subject")
	}
	return claims.Subject, nil
}
