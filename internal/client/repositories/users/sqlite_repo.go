package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/dbx"
)

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository over db, which may be a
// transaction.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts user. Emails are stored trimmed and lower-cased.
func (r *SQLiteRepository) Create(ctx context.Context, user *LocalUser) error {
	query :=
		`INSERT INTO local_users (id, email, name, company, salt, verifier, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, normalizeEmail(user.Email), user.Name, user.Company, user.Salt, user.Verifier, user.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// CreateWithSession inserts user and its first session atomically.
func (r *SQLiteRepository) CreateWithSession(ctx context.Context, user *LocalUser, s *LocalSession) error {
	create := func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		return repo.CreateSession(ctx, s)
	}

	// Already inside a transaction.
	db, ok := r.db.(*sql.DB)
	if !ok {
		return create(ctx, r.db)
	}
	return dbx.WithTx(ctx, db, nil, create)
}

// GetByEmail looks a user up by normalized email.
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*LocalUser, error) {
	return r.getOne(ctx, `WHERE email = ?`, normalizeEmail(email))
}

// GetByID looks a user up by id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*LocalUser, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *SQLiteRepository) getOne(ctx context.Context, where string, arg any) (*LocalUser, error) {
	query := `SELECT id, email, name, company, salt, verifier, created_at FROM local_users ` + where

	u := &LocalUser{}
	var created int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.Company, &u.Salt, &u.Verifier, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

// CreateSession stores s.
func (r *SQLiteRepository) CreateSession(ctx context.Context, s *LocalSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO local_sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindSession returns the session for token or common.ErrNotFound.
func (r *SQLiteRepository) FindSession(ctx context.Context, token string) (*LocalSession, error) {
	s := &LocalSession{}
	var expires int64
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM local_sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	return s, nil
}

// DeleteSession removes the session for token.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM local_sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now and
// reports how many were removed.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM local_sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
