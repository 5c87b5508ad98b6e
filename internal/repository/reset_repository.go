package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/learning-platform/internal/model"
)

// ResetRepo stores single-use password reset codes.
type ResetRepo struct{ DB *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{DB: db} }

// Create inserts a freshly issued code.
func (r *ResetRepo) Create(ctx context.Context, pr model.PasswordReset) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_resets (id, user_id, code, created_at, expires_at, used) VALUES (?,?,?,?,?,0)",
		pr.ID, pr.UserID, pr.Code, pr.CreatedAt, pr.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Latest returns the newest row of userID carrying code, used or not.
func (r *ResetRepo) Latest(ctx context.Context, userID, code string) (model.PasswordReset, error) {
	var pr model.PasswordReset
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, code, created_at, expires_at, used FROM password_resets
		 WHERE user_id=? AND code=? ORDER BY created_at DESC LIMIT 1`, userID, code).
		Scan(&pr.ID, &pr.UserID, &pr.Code, &pr.CreatedAt, &pr.ExpiresAt, &pr.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PasswordReset{}, ErrNotFound
		}
		return model.PasswordReset{}, fmt.Errorf("db error: %w", err)
	}
	return pr, nil
}

// MarkUsed flips used from 0 to 1 if the code is still live at now.  A
// concurrent consumer that already claimed it gets ErrConflict.
func (r *ResetRepo) MarkUsed(ctx context.Context, id string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE password_resets SET used=1 WHERE id=? AND used=0 AND expires_at >= ?", id, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n != 1 {
		return ErrConflict
	}
	return nil
}

// Release undoes MarkUsed after the reset could not be completed.
func (r *ResetRepo) Release(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, "UPDATE password_resets SET used=0 WHERE id=? AND used=1", id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired purges codes that expired before cutoff.
func (r *ResetRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM password_resets WHERE expires_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
