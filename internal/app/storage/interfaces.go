package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/microsite"
	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique column would be duplicated.
	ErrConflict = errors.New("unique constraint violated")
)

// ConflictError names the column that caused ErrConflict.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s already exists", ErrConflict, e.Field)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Conflict builds a ConflictError for field.
func Conflict(field string) error {
	return &ConflictError{Field: field}
}

// ConflictField returns the offending field of a conflict error, if any.
func ConflictField(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// Page bounds a list query. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// UserFilter narrows ListUsers. Empty fields match everything.
type UserFilter struct {
	Role   string
	Status string
	// Search matches first name, last name, user name or email, case-insensitively.
	Search string
	Page
}

// MicrositeFilter narrows ListMicrosites.
type MicrositeFilter struct {
	Type string
	// Search matches name, slug or link, case-insensitively.
	Search string
	Page
}

// UserCounts aggregates users for the dashboard.
type UserCounts struct {
	Total  int            `json:"total"`
	Active int            `json:"active"`
	ByRole map[string]int `json:"byRole"`
}

// UserStore persists dashboard users.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUserByUserName(ctx context.Context, userName string) (user.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]user.User, error)
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (UserCounts, error)
}

// MicrositeStore persists microsites.
type MicrositeStore interface {
	CreateMicrosite(ctx context.Context, m microsite.Microsite) (microsite.Microsite, error)
	UpdateMicrosite(ctx context.Context, m microsite.Microsite) (microsite.Microsite, error)
	GetMicrosite(ctx context.Context, id int64) (microsite.Microsite, error)
	GetMicrositeBySlug(ctx context.Context, slug string) (microsite.Microsite, error)
	GetMicrositeByName(ctx context.Context, name string) (microsite.Microsite, error)
	ListMicrosites(ctx context.Context, filter MicrositeFilter) ([]microsite.Microsite, error)
	DeleteMicrosite(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	CountMicrosites(ctx context.Context) (map[string]int, error)
}
