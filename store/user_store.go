package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"bazario/api/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

const userColumns = `id, name, email, password, address, role, google_id, photo_url, auth_provider, email_verified, last_login, created_at, updated_at`

type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUserParams carries everything CreateUser needs. Password is nil for
// federated accounts.
type CreateUserParams struct {
	Name          string
	Email         string
	Password      []byte
	Address       *string
	Role          string
	GoogleID      *string
	PhotoURL      *string
	AuthProvider  string
	EmailVerified bool
}

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	var password []byte
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&password,
		&user.Address,
		&user.Role,
		&user.GoogleID,
		&user.PhotoURL,
		&user.AuthProvider,
		&user.EmailVerified,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = password
	return user, nil
}

// CreateUser inserts a new user into the database.
func (s *UserStore) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	if params.Role == "" {
		params.Role = models.RoleCustomer
	}
	if params.AuthProvider == "" {
		params.AuthProvider = models.AuthProviderEmail
	}

	query := `
		INSERT INTO users (name, email, password, address, role, google_id, photo_url, auth_provider, email_verified, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + userColumns + `;
	`
	user, err := scanUser(s.db.QueryRowContext(ctx, query,
		params.Name,
		params.Email,
		params.Password,
		params.Address,
		params.Role,
		params.GoogleID,
		params.PhotoURL,
		params.AuthProvider,
		params.EmailVerified,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s", ErrUserExists, params.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("User created in DB: ID=%d, Email=%s, Provider=%s", user.ID, user.Email, user.AuthProvider)
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByEmailOrGoogleID looks a user up by either identity, used when a
// Google sign-in may link to an existing email account.
func (s *UserStore) GetUserByEmailOrGoogleID(ctx context.Context, email, googleID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR google_id = $2 LIMIT 1;`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email, googleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email or google id: %w", err)
	}
	return user, nil
}

// LinkGoogleAccount backfills Google identity fields on an existing user.
func (s *UserStore) LinkGoogleAccount(ctx context.Context, userID int64, googleID string, photoURL *string) error {
	query := `
		UPDATE users
		SET google_id = $2,
		    photo_url = COALESCE(photo_url, $3),
		    auth_provider = $4,
		    updated_at = NOW()
		WHERE id = $1;
	`
	if _, err := s.db.ExecContext(ctx, query, userID, googleID, photoURL, models.AuthProviderGoogle); err != nil {
		return fmt.Errorf("failed to link google account: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, userID int64) error {
	query := `UPDATE users SET last_login = NOW() WHERE id = $1;`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
