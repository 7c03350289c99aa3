// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                  string     `db:"id"`
	Name                string     `db:"name"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	ResetTokenHash      *string    `db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetTokenHash != nil &&
		u.ResetTokenExpiresAt != nil &&
		now.Before(*u.ResetTokenExpiresAt)
}

const ResetTokenTTL = time.Hour
