package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleNormal = "normal"
	RoleAdmin  = "admin"
	RoleGuest  = "guest"
)

// SessionToken is one device-scoped session entry. Only digests are stored;
// the raw token leaves the server exactly once, at issue time.
type SessionToken struct {
	Digest         string `json:"digest"`
	PreviousDigest string `json:"previous_digest,omitempty"`
	ExpiresAt      int64  `json:"expires_at"`
	RotatedAt      int64  `json:"rotated_at,omitempty"`
	LastUsedAt     int64  `json:"last_used_at"`
}

// TokenMap holds the active sessions keyed by client id. It implements
// driver.Valuer and sql.Scanner so it survives both struct saves and
// column-style updates; gorm's serializer hooks do not cover the latter.
type TokenMap map[string]SessionToken

func (m TokenMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *TokenMap) Scan(value interface{}) error {
	if value == nil {
		*m = TokenMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported tokens column type %T", value)
	}

	if len(data) == 0 {
		*m = TokenMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

type User struct {
	Base
	Email           string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordDigest  string `gorm:"not null" json:"-"`
	Username        string `gorm:"size:20" json:"username,omitempty"`
	ProfileImageKey string `json:"-"`
	Role            string `gorm:"default:'normal'" json:"role"` // normal, admin, guest
	IsDeleted       bool   `gorm:"default:false;index" json:"-"`

	ConfirmedAt        *time.Time `json:"-"`
	ConfirmationSentAt *time.Time `json:"-"`

	ResetPasswordDigest string     `gorm:"index" json:"-"`
	ResetPasswordSentAt *time.Time `json:"-"`
	AllowPasswordChange bool       `gorm:"default:false" json:"-"`

	LastLoginAt *time.Time `json:"-"`
	Tokens      TokenMap   `gorm:"type:jsonb" json:"-"`

	// Relationships
	Recipes []Recipe `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// CanAuthenticate reports whether sign-in and token validation may succeed
// for this account at all.
func (u *User) CanAuthenticate() bool {
	return u.Confirmed() && !u.IsDeleted
}
