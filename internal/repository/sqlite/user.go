package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/model"
	"github.com/sakif/toolkit-portal/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore is the credential store view of the database. Both stores share
// the one connection pool; the split exists because users and subscriptions
// are distinct repository interfaces with overlapping method names.
type UserStore struct {
	db *DB
}

// Users returns the credential store backed by this database.
func (db *DB) Users() *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user row, generating the ID and creation timestamp.
//
// DUPLICATE DETECTION:
// We do NOT pre-check for an existing email here — we just insert and let the
// UNIQUE COLLATE NOCASE index decide. If the constraint fires, the error is
// translated into apperror.Conflict so callers (and ultimately the HTTP
// layer) see a stable kind rather than a driver-specific string. This is what
// makes concurrent same-email registrations safe: whichever insert loses the
// race gets the conflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email already registered")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email. The lookup is case-insensitive to
// match the uniqueness index. Returns apperror.ErrNotFound if no user exists.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, is_active, created_at
		 FROM users WHERE email = ? COLLATE NOCASE`,
		email,
	), email)
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, is_active, created_at
		 FROM users WHERE id = ?`,
		id,
	), id)
}

func (s *UserStore) scanUser(row *sql.Row, key string) (*model.User, error) {
	var u model.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}

	return &u, nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// modernc.org/sqlite doesn't export a typed error for this, so we match the
// canonical SQLite message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
