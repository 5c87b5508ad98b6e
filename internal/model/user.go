package model

import "time"

// User represents an account as stored in the `users` table.  The
// json tags are omitted here because these structs are primarily used
// internally; handlers define their own response types.
//
// Fields:
//  ID           – opaque UUID primary key.
//  Email        – unique address, stored lower-cased.
//  PasswordHash – bcrypt hash; the plaintext is never stored.
//  Name         – optional display name.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Name         *string   // users.name (nullable)
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Session models a row of the `sessions` table.  The cookie carries a
// random token; the row id is the SHA-256 of that token, so a leaked table
// cannot be replayed as cookies.  A session is valid while now <= ExpiresAt
// and is never extended.
type Session struct {
    ID        string    // sessions.id (token hash)
    UserID    string    // sessions.user_id
    CreatedAt time.Time // sessions.created_at
    ExpiresAt time.Time // sessions.expires_at
}

// PasswordReset models a row of `password_resets`.  A code moves from
// issued to used or expired and never back.
type PasswordReset struct {
    ID        string    // password_resets.id
    UserID    string    // password_resets.user_id
    Code      string    // password_resets.code (6 digits)
    CreatedAt time.Time // password_resets.created_at
    ExpiresAt time.Time // password_resets.expires_at
    Used      bool      // password_resets.used
}

// Expired reports whether the code can no longer be consumed at now.
func (r PasswordReset) Expired(now time.Time) bool { return now.After(r.ExpiresAt) }
