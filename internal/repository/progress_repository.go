package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// ProgressRepo records which curriculum tasks a user has completed.  Task
// and track ids are opaque strings owned by the curriculum front end.
type ProgressRepo struct{ DB *sql.DB }

func NewProgressRepo(db *sql.DB) *ProgressRepo { return &ProgressRepo{DB: db} }

// List returns the completed task ids of userID in trackID.
func (r *ProgressRepo) List(ctx context.Context, userID, trackID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT task_id FROM user_progress WHERE user_id=? AND track_id=? ORDER BY completed_at",
		userID, trackID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Set marks a task completed (idempotent) or clears it.
func (r *ProgressRepo) Set(ctx context.Context, userID, trackID, taskID string, completed bool) error {
	var err error
	if completed {
		_, err = r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO user_progress (user_id, track_id, task_id) VALUES (?, ?, ?)",
			userID, trackID, taskID)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"DELETE FROM user_progress WHERE user_id=? AND track_id=? AND task_id=?",
			userID, trackID, taskID)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
