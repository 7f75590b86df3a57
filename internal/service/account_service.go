package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for password hashing
	BcryptCost = 10

	DefaultAccessTokenExpiration = 60 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingJWTSecret   = errors.New("jwt secret is not configured")
)

// RegisterInput describes a new credentialed account
type RegisterInput struct {
	Email        string
	Password     string
	DisplayName  string
	Slug         string
	Role         string
	ListingLimit int
}

// AccountService issues sessions and provisions accounts
type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (accessToken string, account *domain.Account, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// Claims represents the JWT claims
type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	jwt.RegisteredClaims
}

type accountService struct {
	accounts        repository.AccountRepository
	jwtSecret       string
	tokenExpiration time.Duration
}

// NewAccountService creates a new instance of AccountService
func NewAccountService(accounts repository.AccountRepository, jwtSecret string, tokenExpiration time.Duration) AccountService {
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultAccessTokenExpiration
	}
	return &accountService{
		accounts:        accounts,
		jwtSecret:       jwtSecret,
		tokenExpiration: tokenExpiration,
	}
}

// Register creates a new account with a hashed password
func (s *accountService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrAccountAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleSeller
	}
	limit := input.ListingLimit
	if limit <= 0 {
		limit = domain.DefaultListingLimit
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		DisplayName:  input.DisplayName,
		Slug:         input.Slug,
		Role:         role,
		ListingLimit: limit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Login authenticates an account and returns a signed access token
func (s *accountService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(account)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return token, account, nil
}

// ValidateToken validates a JWT token and returns the claims. Without a secret every
// token is rejected.
func (s *accountService) ValidateToken(tokenString string) (*Claims, error) {
	if s.jwtSecret == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetAccount retrieves an account by ID
func (s *accountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *accountService) generateAccessToken(account *domain.Account) (string, error) {
	if s.jwtSecret == "" {
		return "", ErrMissingJWTSecret
	}

	now := time.Now()
	claims := &Claims{
		AccountID: account.ID,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
