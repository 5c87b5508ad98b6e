package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/learning-platform/internal/model"
)

type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Get returns the profile of userID, or ErrNotFound when none was saved yet.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (model.Profile, error) {
	var (
		p                                      model.Profile
		avatar, bio, tz, location, preferRoles sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, avatar_url, bio, timezone, location, preferred_roles, updated_at
		 FROM profiles WHERE user_id=?`, userID).
		Scan(&p.UserID, &avatar, &bio, &tz, &location, &preferRoles, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("db error: %w", err)
	}
	p.AvatarURL = nullable(avatar)
	p.Bio = nullable(bio)
	p.Timezone = nullable(tz)
	p.Location = nullable(location)
	p.PreferredRoles = nullable(preferRoles)
	return p, nil
}

// Upsert creates or replaces every column of the profile.
func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles (user_id, avatar_url, bio, timezone, location, preferred_roles)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE avatar_url=VALUES(avatar_url), bio=VALUES(bio), timezone=VALUES(timezone),
		   location=VALUES(location), preferred_roles=VALUES(preferred_roles)`,
		p.UserID, p.AvatarURL, p.Bio, p.Timezone, p.Location, p.PreferredRoles)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
