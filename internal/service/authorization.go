package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"storefront/internal/repository"

	"github.com/google/uuid"
)

// Credentials carries whatever the caller presented at the boundary
type Credentials struct {
	BearerToken string
	APIKey      string
}

// Principal is the authorized caller of a clone
type Principal struct {
	AccountID uuid.UUID
	Role      string
	Method    string
}

const (
	AuthMethodSession      = "session"
	AuthMethodSharedSecret = "shared_secret"
)

// AuthorizationStrategy decides whether a caller may run a clone.
// Implementations return errors wrapping ErrUnauthorized or ErrForbidden.
type AuthorizationStrategy interface {
	Authorize(ctx context.Context, creds Credentials) (*Principal, error)
}

// TokenValidator parses session tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// SessionAuthorizer accepts a bearer token whose account currently holds an admin role.
// The role is re-read from the account store rather than trusted from the token.
type SessionAuthorizer struct {
	tokens     TokenValidator
	accounts   repository.AccountRepository
	adminRoles map[string]struct{}
}

// NewSessionAuthorizer creates a session strategy accepting the given roles
func NewSessionAuthorizer(tokens TokenValidator, accounts repository.AccountRepository, adminRoles []string) *SessionAuthorizer {
	roles := make(map[string]struct{}, len(adminRoles))
	for _, r := range adminRoles {
		roles[r] = struct{}{}
	}
	return &SessionAuthorizer{tokens: tokens, accounts: accounts, adminRoles: roles}
}

func (a *SessionAuthorizer) Authorize(ctx context.Context, creds Credentials) (*Principal, error) {
	if creds.BearerToken == "" {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}

	claims, err := a.tokens.ValidateToken(creds.BearerToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}

	account, err := a.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: session account no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load session account: %w", err)
	}

	if account.Blocked {
		return nil, fmt.Errorf("%w: account is blocked", ErrForbidden)
	}
	if _, ok := a.adminRoles[account.Role]; !ok {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}

	return &Principal{AccountID: account.ID, Role: account.Role, Method: AuthMethodSession}, nil
}

// SharedSecretAuthorizer accepts callers presenting the server-held API key
type SharedSecretAuthorizer struct {
	secret []byte
}

// NewSharedSecretAuthorizer creates a shared-secret strategy. An empty secret rejects every caller.
func NewSharedSecretAuthorizer(secret string) *SharedSecretAuthorizer {
	return &SharedSecretAuthorizer{secret: []byte(secret)}
}

func (a *SharedSecretAuthorizer) Authorize(_ context.Context, creds Credentials) (*Principal, error) {
	if creds.APIKey == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrUnauthorized)
	}
	if len(a.secret) == 0 || subtle.ConstantTimeCompare([]byte(creds.APIKey), a.secret) != 1 {
		return nil, fmt.Errorf("%w: invalid api key", ErrForbidden)
	}
	return &Principal{Method: AuthMethodSharedSecret}, nil
}
