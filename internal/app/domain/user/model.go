// Package user holds the dashboard user model and its validation rules.
package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Role values.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Gender values.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// MinPasswordLength is the shortest accepted plain-text password.
const MinPasswordLength = 8

// User is a dashboard account. PasswordHash never leaves the service layer.
type User struct {
	ID           int64      `json:"id" db:"id"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	UserName     string     `json:"userName" db:"user_name"`
	Gender       string     `json:"gender" db:"gender"`
	BirthDate    *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	Status       string     `json:"status" db:"status"`
	Avatar       *string    `json:"avatar" db:"avatar"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the role may manage other users.
func (u User) IsAdmin() bool {
	return IsAdminRole(u.Role)
}

// IsActive reports whether the account may log in.
func (u User) IsActive() bool {
	return u.Status == StatusActive
}

// IsAdminRole reports whether role is admin or super-admin.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// ApplyDefaults fills gender, role and status when unset.
func (u *User) ApplyDefaults() {
	if u.Gender == "" {
		u.Gender = GenderMale
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
}

// Normalize trims user supplied text fields.
func (u *User) Normalize() {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.UserName = strings.TrimSpace(u.UserName)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Gender = strings.ToLower(strings.TrimSpace(u.Gender))
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	u.Status = strings.ToLower(strings.TrimSpace(u.Status))
	if u.Avatar != nil {
		trimmed := strings.TrimSpace(*u.Avatar)
		if trimmed == "" {
			u.Avatar = nil
		} else {
			u.Avatar = &trimmed
		}
	}
}

// Validate returns every field failure at once.
func (u User) Validate() error {
	var result *multierror.Error
	if u.FirstName == "" {
		result = multierror.Append(result, fmt.Errorf("firstName is required"))
	}
	if u.LastName == "" {
		result = multierror.Append(result, fmt.Errorf("lastName is required"))
	}
	if u.UserName == "" {
		result = multierror.Append(result, fmt.Errorf("userName is required"))
	} else if strings.ContainsAny(u.UserName, " \t/") {
		result = multierror.Append(result, fmt.Errorf("userName must not contain spaces or slashes"))
	}
	if u.Email == "" {
		result = multierror.Append(result, fmt.Errorf("email is required"))
	} else if !ValidEmail(u.Email) {
		result = multierror.Append(result, fmt.Errorf("email %q is not valid", u.Email))
	}
	if !oneOf(u.Gender, GenderMale, GenderFemale) {
		result = multierror.Append(result, fmt.Errorf("gender must be male or female"))
	}
	if !oneOf(u.Role, RoleSuperAdmin, RoleAdmin, RoleUser) {
		result = multierror.Append(result, fmt.Errorf("role must be super-admin, admin or user"))
	}
	if !oneOf(u.Status, StatusActive, StatusInactive) {
		result = multierror.Append(result, fmt.Errorf("status must be active or inactive"))
	}
	if u.BirthDate != nil && u.BirthDate.After(time.Now()) {
		result = multierror.Append(result, fmt.Errorf("birthDate must be in the past"))
	}
	return result.ErrorOrNil()
}

// ValidatePassword enforces the minimum length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidEmail reports whether s is a bare address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
