package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pzaremba/site-auth-be/internal/models"
)

// SQLiteRepository implements Repository on a SQLite database. The UNIQUE
// constraints on username and email (COLLATE NOCASE) provide the atomic
// insert-if-absent guarantee concurrent registrations rely on.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLiteRepository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const accountColumns = `id, username, email, password_digest, failed_login_count, locked_until, created_at, updated_at`

// Create inserts a new account. A username or email collision, including one
// lost to a concurrent registration, is reported as ErrDuplicateKey.
func (r *SQLiteRepository) Create(ctx context.Context, acc *models.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Username, acc.Email, acc.PasswordDigest,
		acc.Security.FailedLoginCount, nullTime(acc.Security.LockedUntil),
		acc.CreatedAt, acc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// FindByUsernameOrEmail returns an account matching either identifier.
func (r *SQLiteRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ? OR email = ?`, username, email)
	return scanAccount(row)
}

// FindByUsername returns the account with the given username.
func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

// FindByEmail returns the account with the given email.
func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

// FindByID returns the account with the given id.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// Save persists the mutable fields of an existing account.
func (r *SQLiteRepository) Save(ctx context.Context, acc *models.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_digest = ?, failed_login_count = ?, locked_until = ?, updated_at = ? WHERE id = ?`,
		acc.PasswordDigest, acc.Security.FailedLoginCount, nullTime(acc.Security.LockedUntil),
		acc.UpdatedAt, acc.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var acc models.Account
	var lockedUntil sql.NullTime
	err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.PasswordDigest,
		&acc.Security.FailedLoginCount, &lockedUntil, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		acc.Security.LockedUntil = &t
	}
	return &acc, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

var _ Repository = (*SQLiteRepository)(nil)
