// Package seed provisions the records a fresh install needs: one super-admin
// account and the default microsite. Rows that already exist are skipped.
package seed

import (
	"context"
	"fmt"
	"strings"

	app "github.com/sbmwhylt/wlt-team-space/internal/app"
	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/microsite"
	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/users"
	"github.com/sbmwhylt/wlt-team-space/internal/config"
	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

// DefaultMicrositeName identifies the seeded microsite.
const DefaultMicrositeName = "Default Microsite"

// Result reports what Run created.
type Result struct {
	AdminCreated     bool
	MicrositeCreated bool
}

// DefaultMicrosite returns the record created on first seed.
func DefaultMicrosite() microsite.Microsite {
	return microsite.Microsite{
		Name:       DefaultMicrositeName,
		Link:       "https://defaultmicrosite.com",
		Type:       microsite.TypeConsumer,
		Banner:     "https://via.placeholder.com/150",
		Logo:       "https://via.placeholder.com/150",
		AboutDesc:  "This is the default microsite.",
		FooterDesc: "Default footer description.",
		SocialLinks: microsite.SocialLinks{
			Facebook:  "https://facebook.com/default",
			Twitter:   "https://twitter.com/default",
			Instagram: "https://instagram.com/default",
		},
		DigitalCardOrderLink:  "https://defaultmicrosite.com/digital-card",
		PhysicalCardOrderLink: "https://defaultmicrosite.com/physical-card",
		CommunityLink:         "https://defaultmicrosite.com/community",
		MapLink:               "https://maps.google.com/?q=default+location",
		MarketingImgs: []string{
			"https://via.placeholder.com/300",
			"https://via.placeholder.com/300",
			"https://via.placeholder.com/300",
		},
		MarketingVids: []string{
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
	}
}

// Run seeds the super-admin from cfg and the default microsite.
func Run(ctx context.Context, application *app.Application, cfg config.SeedConfig, log *logging.Logger) (Result, error) {
	if log == nil {
		log = logging.NewDefault("seed")
	}
	var res Result

	created, err := seedAdmin(ctx, application, cfg, log)
	if err != nil {
		return res, err
	}
	res.AdminCreated = created

	created, err = seedMicrosite(ctx, application, log)
	if err != nil {
		return res, err
	}
	res.MicrositeCreated = created
	return res, nil
}

func seedAdmin(ctx context.Context, application *app.Application, cfg config.SeedConfig, log *logging.Logger) (bool, error) {
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		return false, fmt.Errorf("SEED_ADMIN_PASSWORD is required")
	}
	admin, err := application.Users.Register(ctx, users.RegisterInput{
		FirstName: "Super",
		LastName:  "Admin",
		UserName:  cfg.AdminUserName,
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		Role:      user.RoleSuperAdmin,
		Status:    user.StatusActive,
	}, true)
	if svcerrors.Is(err, svcerrors.CodeConflict) {
		log.WithField("email", cfg.AdminEmail).Info("super-admin already exists, skipping")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed super-admin: %w", err)
	}
	log.WithField("user_id", admin.ID).WithField("email", admin.Email).Info("super-admin seeded")
	return true, nil
}

func seedMicrosite(ctx context.Context, application *app.Application, log *logging.Logger) (bool, error) {
	existing, err := application.Microsites.GetByName(ctx, DefaultMicrositeName)
	switch {
	case err == nil:
		log.WithField("slug", existing.Slug).Info("default microsite already exists, skipping")
		return false, nil
	case !svcerrors.Is(err, svcerrors.CodeNotFound):
		return false, fmt.Errorf("look up default microsite: %w", err)
	}
	m, err := application.Microsites.Create(ctx, DefaultMicrosite())
	if err != nil {
		return false, fmt.Errorf("seed default microsite: %w", err)
	}
	log.WithField("microsite_id", m.ID).WithField("slug", m.Slug).Info("default microsite seeded")
	return true, nil
}
