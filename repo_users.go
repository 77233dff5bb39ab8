package portal

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the credential store accessor. Role has no update path on
// purpose: it is fixed at creation time.
type Users interface {
	Create(ctx context.Context, record *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, id int64, name, email string) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	CreateSchema(ctx context.Context) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository will create a Users store backed by bun
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

// CreateSchema issues the users DDL. The unique index on email is what
// makes concurrent duplicate registrations lose atomically; the flow-level
// pre-checks are advisory only.
func (r *users) CreateSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create users schema")
	}
	return nil
}

func (r *users) Create(ctx context.Context, record *User) (*User, error) {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}
	return record, nil
}

// GetByEmail looks a user up by the email exactly as stored.
func (r *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := new(User)
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not query user by email")
	}
	return record, nil
}

func (r *users) GetByID(ctx context.Context, id int64) (*User, error) {
	record := new(User)
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not query user by id")
	}
	return record, nil
}

func (r *users) UpdateProfile(ctx context.Context, id int64, name, email string) (*User, error) {
	res, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("name = ?", name).
		Set("email = ?", email).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update profile")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *users) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update password")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EmailTaken reports whether another record already owns the email.
// Pass excludeID 0 to consider every record.
func (r *users) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	q := r.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email)

	if excludeID != 0 {
		q = q.Where("?TableAlias.id != ?", excludeID)
	}

	taken, err := q.Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "could not check email uniqueness")
	}
	return taken, nil
}

// isUniqueViolation matches the unique constraint wording of the dialects
// the portal runs on (sqlite locally, postgres in deployments).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
