package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserType distinguishes the two account kinds on the platform.
type UserType = string

const (
	// UserTypeActor is an individual talent account
	UserTypeActor UserType = "ACTOR"
	// UserTypeAgency is a casting agency account
	UserTypeAgency UserType = "AGENCY"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Type          UserType   `bun:"type,notnull" json:"type,omitempty"`
	ProfileImage  string     `bun:"profile_image" json:"profile_image,omitempty"`
	IsActive      bool       `bun:"is_active" json:"is_active,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserInfo is the public projection returned alongside issued tokens.
type UserInfo struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Type         UserType  `json:"type"`
	ProfileImage string    `json:"profileImage,omitempty"`
}

// Info builds the public projection of the user.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Type:         u.Type,
		ProfileImage: u.ProfileImage,
	}
}

// RefreshTokenRecord is the server-side session record. One record per
// user; the store evicts it when the TTL lapses.
type RefreshTokenRecord struct {
	UserID uuid.UUID `json:"-"`
	Email  string    `json:"email"`
	Token  string    `json:"token"`
}
