package entity

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	Role         string     `gorm:"size:20;not null;default:user" json:"role"`
	Bio          *string    `gorm:"type:text" json:"bio"`
	IsActive     bool       `gorm:"not null;default:false" json:"-"`
	IsSuperuser  bool       `gorm:"not null;default:false" json:"-"`
	CodeIssuedAt *time.Time `json:"-"`
	LastLoginAt  *time.Time `json:"-"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// EffectiveRole is the role used for access decisions.
func (u *User) EffectiveRole() string {
	if u.IsAdmin() {
		return RoleAdmin
	}
	return u.Role
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}
