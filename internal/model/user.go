package model

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

const (
	ProviderEmail  = "email"
	ProviderGithub = "github"
)

// swagger:model User
type User struct {
	UUIDBase
	Name       string     `gorm:"size:100;not null" json:"name"`
	Email      string     `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	SupabaseID *string    `gorm:"size:64;uniqueIndex" json:"-"`
	GithubID   *string    `gorm:"size:64;uniqueIndex" json:"-"`
	Provider   string     `gorm:"size:20;default:email;not null" json:"provider,omitempty"`
	AvatarURL  string     `gorm:"size:2048" json:"avatarUrl,omitempty"`
	Role       UserRole   `gorm:"size:10;default:user;not null" json:"role,omitempty"`
	LastSeen   *time.Time `json:"lastSeen,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// swagger:model Admin
type Admin struct {
	UUIDBase
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
}

func (Admin) TableName() string {
	return "admins"
}
