package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/metrics"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

const (
	msgEmailExists   = "Email already exists"
	msgUserNameTaken = "Username already taken"
	msgNotFound      = "User not found"
)

// Service manages dashboard users.
type Service struct {
	store storage.UserStore
	cost  int
	log   *logging.Logger
}

// Option customises the service.
type Option func(*Service)

// WithBcryptCost overrides the hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// New constructs a user service.
func New(store storage.UserStore, log *logging.Logger, opts ...Option) *Service {
	if log == nil {
		log = logging.NewDefault("users")
	}
	s := &Service{store: store, cost: bcrypt.DefaultCost, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	UserName  string     `json:"userName"`
	Gender    string     `json:"gender"`
	BirthDate *time.Time `json:"birthDate"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	Avatar    *string    `json:"avatar"`
}

// Register creates a user. Only privileged callers may choose a role other
// than user or create an inactive account.
func (s *Service) Register(ctx context.Context, in RegisterInput, privileged bool) (user.User, error) {
	u := user.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		UserName:  in.UserName,
		Gender:    in.Gender,
		BirthDate: in.BirthDate,
		Email:     in.Email,
		Role:      in.Role,
		Status:    in.Status,
		Avatar:    in.Avatar,
	}
	u.Normalize()
	u.ApplyDefaults()

	if !privileged && (u.Role != user.RoleUser || u.Status != user.StatusActive) {
		return user.User{}, svcerrors.Forbidden("Only admins can assign roles or status")
	}

	var fieldErrs *multierror.Error
	if err := u.Validate(); err != nil {
		fieldErrs = multierror.Append(fieldErrs, err)
	}
	if err := user.ValidatePassword(in.Password); err != nil {
		fieldErrs = multierror.Append(fieldErrs, err)
	}
	if err := fieldErrs.ErrorOrNil(); err != nil {
		return user.User{}, validationError(err)
	}

	if _, err := s.store.GetUserByEmail(ctx, u.Email); err == nil {
		return user.User{}, svcerrors.Conflict(msgEmailExists, nil)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, svcerrors.Internal("lookup user by email", err)
	}
	if _, err := s.store.GetUserByUserName(ctx, u.UserName); err == nil {
		return user.User{}, svcerrors.Conflict(msgUserNameTaken, nil)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, svcerrors.Internal("lookup user by username", err)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return user.User{}, err
	}
	u.PasswordHash = hash

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return user.User{}, storeError(err)
	}
	metrics.RecordUserRegistered()
	s.log.WithContext(ctx).
		WithField("user_id", created.ID).
		WithField("role", created.Role).
		Info("user registered")
	return sanitize(created), nil
}

// List returns users matching filter without password hashes.
func (s *Service) List(ctx context.Context, filter storage.UserFilter) ([]user.User, error) {
	users, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, svcerrors.Internal("list users", err)
	}
	for i := range users {
		users[i] = sanitize(users[i])
	}
	return users, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, storeError(err)
	}
	return sanitize(u), nil
}

// GetByUserName returns a user by user name.
func (s *Service) GetByUserName(ctx context.Context, userName string) (user.User, error) {
	u, err := s.store.GetUserByUserName(ctx, strings.TrimSpace(userName))
	if err != nil {
		return user.User{}, storeError(err)
	}
	return sanitize(u), nil
}

// Update applies a partial update. A password in the patch is re-hashed.
func (s *Service) Update(ctx context.Context, id int64, patch user.Patch) (user.User, error) {
	existing, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, storeError(err)
	}

	patch.Apply(&existing)
	if err := existing.Validate(); err != nil {
		return user.User{}, validationError(err)
	}
	if patch.Password != nil {
		if err := user.ValidatePassword(*patch.Password); err != nil {
			return user.User{}, validationError(err)
		}
		hash, err := s.hash(*patch.Password)
		if err != nil {
			return user.User{}, err
		}
		existing.PasswordHash = hash
	}

	updated, err := s.store.UpdateUser(ctx, existing)
	if err != nil {
		return user.User{}, storeError(err)
	}
	s.log.WithContext(ctx).
		WithField("user_id", id).
		WithField("password_changed", patch.Password != nil).
		Info("user updated")
	return sanitize(updated), nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return svcerrors.BadRequest("Current password is incorrect")
	}
	if err := user.ValidatePassword(next); err != nil {
		return validationError(err)
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if _, err := s.store.UpdateUser(ctx, u); err != nil {
		return storeError(err)
	}
	s.log.WithContext(ctx).WithField("user_id", id).Info("password changed")
	return nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return storeError(err)
	}
	s.log.WithContext(ctx).WithField("user_id", id).Info("user deleted")
	return nil
}

// Stats returns dashboard counters.
func (s *Service) Stats(ctx context.Context) (storage.UserCounts, error) {
	counts, err := s.store.CountUsers(ctx)
	if err != nil {
		return storage.UserCounts{}, svcerrors.Internal("count users", err)
	}
	return counts, nil
}

// Authenticate returns the user when email and password match. The hash is
// kept on the returned value for the caller's use and must not be exposed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, bool, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		// Burn comparable time so unknown emails are not distinguishable.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return user.User{}, false, nil
	}
	if err != nil {
		return user.User{}, false, svcerrors.Internal("lookup user by email", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return user.User{}, false, nil
	}
	return u, true, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", svcerrors.Internal("hash password", err)
	}
	return string(hash), nil
}

func sanitize(u user.User) user.User {
	u.PasswordHash = ""
	return u
}

func validationError(err error) error {
	var fields []string
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range flatten(merr) {
			fields = append(fields, e.Error())
		}
	} else {
		fields = []string{err.Error()}
	}
	return svcerrors.Validation(strings.Join(fields, "; "), err).WithDetails("fields", fields)
}

func flatten(merr *multierror.Error) []error {
	var out []error
	for _, e := range merr.Errors {
		var nested *multierror.Error
		if errors.As(e, &nested) {
			out = append(out, flatten(nested)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return svcerrors.NotFound(msgNotFound)
	case errors.Is(err, storage.ErrConflict):
		if storage.ConflictField(err) == "userName" {
			return svcerrors.Conflict(msgUserNameTaken, err)
		}
		return svcerrors.Conflict(msgEmailExists, err)
	default:
		return svcerrors.Internal("user store", err)
	}
}
