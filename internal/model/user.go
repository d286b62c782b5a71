package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role controls what a principal may do outside of its own records.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Gender is an optional profile attribute.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User represents a registered account. The password hash never leaves the service layer.
type User struct {
	ID                uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Email             string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username          string     `json:"username" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash      string     `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	FirstName         *string    `json:"firstName" gorm:"size:100"`
	LastName          *string    `json:"lastName" gorm:"size:100"`
	Gender            *Gender    `json:"gender" gorm:"size:16"`
	BirthDate         *time.Time `json:"birthDate"`
	AvatarURL         *string    `json:"avatarUrl" gorm:"size:512"`
	Height            *float64   `json:"height"`            // cm
	Weight            *float64   `json:"weight"`            // kg
	BodyFatPercentage *float64   `json:"bodyFatPercentage"` // 0-100
	Role              Role       `json:"role" gorm:"size:16;not null;default:'user'"`
	IsActive          bool       `json:"isActive" gorm:"not null;default:true"`
	LastLoginAt       *time.Time `json:"lastLoginAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	// Relations
	FitnessGoals []FitnessGoal `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
