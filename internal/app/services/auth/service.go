// Package auth issues and verifies the bearer tokens used by the dashboard.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/metrics"
	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

const (
	// MsgInvalidCredentials is shared by unknown email and wrong password.
	MsgInvalidCredentials = "Invalid credentials"
	// MsgInactive is returned when an inactive account tries to log in.
	MsgInactive = "Your account is inactive. Please contact support team."
	// MsgLoginSuccessful is the login response message.
	MsgLoginSuccessful = "Login successful"

	// DefaultTokenTTL is the token lifetime when none is configured.
	DefaultTokenTTL = time.Hour
)

// Users is the subset of the user service auth depends on.
type Users interface {
	Authenticate(ctx context.Context, email, password string) (user.User, bool, error)
	Get(ctx context.Context, id int64) (user.User, error)
}

// Claims are the token claims. id and role are top-level claims for web clients.
type Claims struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token carries an admin role.
func (c Claims) IsAdmin() bool {
	return user.IsAdminRole(c.Role)
}

// LoginResult is returned by Login.
type LoginResult struct {
	Msg   string    `json:"msg"`
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// Service authenticates users and manages tokens.
type Service struct {
	users  Users
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	log    *logging.Logger
}

// Config configures the token issuer.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// New constructs an auth service.
func New(users Users, cfg Config, log *logging.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if log == nil {
		log = logging.NewDefault("auth")
	}
	return &Service{
		users:  users,
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
		log:    log,
	}, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, svcerrors.BadRequest("email and password are required")
	}

	u, ok, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		metrics.RecordLogin("invalid")
		s.log.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"email": email})
		return LoginResult{}, svcerrors.BadRequest(MsgInvalidCredentials)
	}
	if !u.IsActive() {
		metrics.RecordLogin("inactive")
		s.log.LogSecurityEvent(ctx, "login_inactive", map[string]interface{}{"user_id": u.ID})
		return LoginResult{}, svcerrors.Forbidden(MsgInactive)
	}

	token, err := s.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	metrics.RecordLogin("success")
	s.log.WithContext(ctx).WithField("user_id", u.ID).Info("user logged in")

	u.PasswordHash = ""
	return LoginResult{Msg: MsgLoginSuccessful, Token: token, User: u}, nil
}

// Issue signs a token for u.
func (s *Service) Issue(u user.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", svcerrors.Internal("sign token", err)
	}
	return signed, nil
}

// Verify parses and validates a token.
func (s *Service) Verify(token string) (*Claims, error) {
	return ParseToken(token, s.secret, s.issuer, s.now)
}

// Me returns the profile of the token holder.
func (s *Service) Me(ctx context.Context, claims *Claims) (user.User, error) {
	if claims == nil {
		return user.User{}, svcerrors.Unauthorized("")
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if svcerrors.Is(err, svcerrors.CodeNotFound) {
			return user.User{}, svcerrors.Unauthorized("User no longer exists")
		}
		return user.User{}, err
	}
	return u, nil
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// ParseToken validates an HS256 token signed with secret. An empty issuer
// skips the issuer check. now may be nil.
func ParseToken(token string, secret []byte, issuer string, now func() time.Time) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, svcerrors.InvalidToken(err).WithDetails("reason", "expired")
		}
		return nil, svcerrors.InvalidToken(err)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return nil, svcerrors.InvalidToken(fmt.Errorf("token missing user id"))
	}
	return claims, nil
}
