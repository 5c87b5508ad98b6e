package model

import "time"

// Profile holds the optional public details of a user (`profiles` table).
// Every column except UserID is nullable.
type Profile struct {
    UserID         string
    AvatarURL      *string
    Bio            *string
    Timezone       *string
    Location       *string
    PreferredRoles *string
    UpdatedAt      time.Time
}
