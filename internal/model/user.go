package model

import "time"

type UserRole string

const (
	RoleUser   UserRole = "user"
	RoleMentor UserRole = "mentor"
	RoleAdmin  UserRole = "admin"
)

// swagger:model User
type User struct {
	UUIDBase
	Username  string    `gorm:"size:50;unique;not null" json:"username"`
	FullName  string    `gorm:"size:100" json:"fullName"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	AvatarURL string    `gorm:"size:255" json:"avatarUrl"`
	Role      UserRole  `gorm:"type:enum('user','mentor','admin');default:'user'" json:"role"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "profiles"
}
