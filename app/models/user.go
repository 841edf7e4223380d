package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/internal/pkg/utils"
)

const (
	ROLE_USER   = "user"
	ROLE_MEMBER = "member"
	ROLE_ADMIN  = "admin"
)

// Roles lists every assignable role, lowest privilege first.
var Roles = []string{ROLE_USER, ROLE_MEMBER, ROLE_ADMIN}

type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;size:100;not null" json:"username" validate:"required,min=3,max=100"`
	Password    string         `gorm:"type:text;not null" json:"-"`
	Email       string         `gorm:"uniqueIndex;size:200;not null" json:"email" validate:"required,email,max=200"`
	FullName    string         `gorm:"size:200;not null" json:"fullName" validate:"required,max=200"`
	Phone       string         `gorm:"size:20" json:"phone,omitempty" validate:"omitempty,phone"`
	Role        string         `gorm:"size:20;not null;default:'user';index" json:"role" validate:"oneof=user member admin"`
	Bio         string         `gorm:"type:text" json:"bio" validate:"max=1000"`
	IsActive    bool           `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt *time.Time     `json:"lastLoginAt"`
	AvatarURL   string         `gorm:"-" json:"avatarUrl"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// AfterFind fills the derived avatar URL.
func (u *User) AfterFind(tx *gorm.DB) error {
	u.AvatarURL = utils.GravatarURL(u.Email, 0)
	return nil
}

func (u *User) AfterSave(tx *gorm.DB) error {
	u.AvatarURL = utils.GravatarURL(u.Email, 0)
	return nil
}

func (u *User) Validate() error {
	return validate.Struct(u)
}

// CreateUser builds an active user with the default role and a hashed password.
func CreateUser(username, email, password, fullName string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username: username,
		Email:    email,
		Password: pw,
		FullName: fullName,
		Role:     ROLE_USER,
		IsActive: true,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// IsMemberOrAdmin reports whether the user may moderate content.
func (u *User) IsMemberOrAdmin() bool {
	return u.Role == ROLE_MEMBER || u.Role == ROLE_ADMIN
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
