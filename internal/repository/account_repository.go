package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account with this email or slug already exists")
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new instance of AccountRepository
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, email, password_hash, display_name, slug, role, blocked, listing_limit,
	phone, whatsapp, bio, city, state, instagram,
	avatar_url, cover_url, cover_mobile_url, banner_url, banner_mobile_url,
	display_settings, created_at, updated_at`

// Create inserts a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		nullableString(account.Slug),
		account.Role,
		account.Blocked,
		account.ListingLimit,
		account.Phone,
		account.WhatsApp,
		account.Bio,
		account.City,
		account.State,
		account.Instagram,
		account.AvatarURL,
		account.CoverURL,
		account.CoverMobileURL,
		account.BannerURL,
		account.BannerMobileURL,
		nullableJSON(account.DisplaySettings),
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// FindByID retrieves an account by ID
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}

	return account, nil
}

// FindByEmail retrieves an account by email
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	return account, nil
}

// UpdateProfile overwrites the storefront profile, profile images and display settings
func (r *accountRepository) UpdateProfile(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET display_name = $2, phone = $3, whatsapp = $4, bio = $5, city = $6, state = $7,
		    instagram = $8, avatar_url = $9, cover_url = $10, cover_mobile_url = $11,
		    banner_url = $12, banner_mobile_url = $13, display_settings = $14
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.DisplayName,
		account.Phone,
		account.WhatsApp,
		account.Bio,
		account.City,
		account.State,
		account.Instagram,
		account.AvatarURL,
		account.CoverURL,
		account.CoverMobileURL,
		account.BannerURL,
		account.BannerMobileURL,
		nullableJSON(account.DisplaySettings),
	)
	if err != nil {
		return fmt.Errorf("failed to update account profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// Delete removes an account; owned rows cascade
func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var slug sql.NullString
	var settings []byte

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&slug,
		&account.Role,
		&account.Blocked,
		&account.ListingLimit,
		&account.Phone,
		&account.WhatsApp,
		&account.Bio,
		&account.City,
		&account.State,
		&account.Instagram,
		&account.AvatarURL,
		&account.CoverURL,
		&account.CoverMobileURL,
		&account.BannerURL,
		&account.BannerMobileURL,
		&settings,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Slug = slug.String
	if len(settings) > 0 {
		account.DisplaySettings = append([]byte(nil), settings...)
	}

	return account, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
