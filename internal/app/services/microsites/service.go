package microsites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/sbmwhylt/wlt-team-space/internal/app/cache"
	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/microsite"
	"github.com/sbmwhylt/wlt-team-space/internal/app/media"
	"github.com/sbmwhylt/wlt-team-space/internal/app/metrics"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

const (
	msgNotFound    = "Microsite not found"
	msgLinkExists  = "Link already exists"
	msgSlugExists  = "Slug already exists"
	maxSlugAttempt = 100
)

// DefaultCacheTTL bounds how long a slug lookup is served from cache.
const DefaultCacheTTL = 5 * time.Minute

// Service manages microsites.
type Service struct {
	store    storage.MicrositeStore
	cache    cache.Cache
	cacheTTL time.Duration
	uploader media.Uploader
	maxBytes int64
	log      *logging.Logger

	// writes counts invalidations so a slug fill can tell it raced one.
	writes atomic.Uint64
}

// New constructs a microsite service. A nil cache disables caching.
func New(store storage.MicrositeStore, c cache.Cache, log *logging.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = logging.NewDefault("microsites")
	}
	return &Service{store: store, cache: c, cacheTTL: DefaultCacheTTL, log: log}
}

// WithCacheTTL overrides the slug cache lifetime.
func (s *Service) WithCacheTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
	return s
}

// AttachUploader configures media uploads. maxBytes of zero disables the size check.
func (s *Service) AttachUploader(u media.Uploader, maxBytes int64) {
	s.uploader = u
	s.maxBytes = maxBytes
}

func slugKey(slug string) string {
	return "microsite:slug:" + slug
}

// Create validates m and stores it. The slug comes from m.Slug when set,
// otherwise from the name; collisions get a numeric suffix.
func (s *Service) Create(ctx context.Context, m microsite.Microsite) (microsite.Microsite, error) {
	m.Normalize()
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return microsite.Microsite{}, validationError(err)
	}

	base := m.Slug
	if base == "" {
		base = m.Name
	}
	base = microsite.Slugify(base)

	// A concurrent create can claim the free slug between the check and the
	// insert; resume the search past the suffix that lost.
	var created microsite.Microsite
	for from := 1; ; {
		slug, n, err := s.uniqueSlug(ctx, base, 0, from)
		if err != nil {
			return microsite.Microsite{}, err
		}
		m.Slug = slug
		created, err = s.store.CreateMicrosite(ctx, m)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrConflict) || storage.ConflictField(err) != "slug" || n >= maxSlugAttempt {
			return microsite.Microsite{}, storeError(err)
		}
		s.log.WithContext(ctx).WithField("slug", slug).Debug("slug claimed concurrently, retrying")
		from = n + 1
	}
	s.invalidate(ctx, created.Slug)
	metrics.RecordMicrositeCreated()
	s.log.WithContext(ctx).
		WithField("microsite_id", created.ID).
		WithField("slug", created.Slug).
		Info("microsite created")
	return created, nil
}

// List returns microsites matching filter.
func (s *Service) List(ctx context.Context, filter storage.MicrositeFilter) ([]microsite.Microsite, error) {
	out, err := s.store.ListMicrosites(ctx, filter)
	if err != nil {
		return nil, svcerrors.Internal("list microsites", err)
	}
	return out, nil
}

// Get returns a microsite by id.
func (s *Service) Get(ctx context.Context, id int64) (microsite.Microsite, error) {
	m, err := s.store.GetMicrosite(ctx, id)
	if err != nil {
		return microsite.Microsite{}, storeError(err)
	}
	return m, nil
}

// GetBySlug serves the public landing page lookup, through the cache.
func (s *Service) GetBySlug(ctx context.Context, slug string) (microsite.Microsite, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return microsite.Microsite{}, svcerrors.BadRequest("slug is required")
	}

	if raw, ok, err := s.cache.Get(ctx, slugKey(slug)); err != nil {
		metrics.RecordCacheLookup("error")
		s.log.WithContext(ctx).WithError(err).Warn("microsite cache read failed")
	} else if ok {
		var m microsite.Microsite
		if err := json.Unmarshal(raw, &m); err == nil {
			metrics.RecordCacheLookup("hit")
			return m, nil
		}
		_ = s.cache.Delete(ctx, slugKey(slug))
	} else {
		metrics.RecordCacheLookup("miss")
	}

	gen := s.writes.Load()
	m, err := s.store.GetMicrositeBySlug(ctx, slug)
	if err != nil {
		return microsite.Microsite{}, storeError(err)
	}
	if raw, err := json.Marshal(m); err == nil {
		if err := s.cache.Set(ctx, slugKey(slug), raw, s.cacheTTL); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("microsite cache write failed")
		}
		// A write landed while the row was read; the value just cached may
		// predate it. Any invalidation after this check deletes it anyway.
		if s.writes.Load() != gen {
			_ = s.cache.Delete(ctx, slugKey(slug))
		}
	}
	return m, nil
}

// Update applies patch. The slug only changes when the patch carries one.
func (s *Service) Update(ctx context.Context, id int64, patch microsite.Patch) (microsite.Microsite, error) {
	existing, err := s.store.GetMicrosite(ctx, id)
	if err != nil {
		return microsite.Microsite{}, storeError(err)
	}
	oldSlug := existing.Slug

	patch.Apply(&existing)
	if patch.Slug != nil {
		requested := microsite.Slugify(existing.Slug)
		if strings.TrimSpace(*patch.Slug) == "" {
			requested = microsite.Slugify(existing.Name)
		}
		if requested != oldSlug {
			taken, err := s.store.SlugExists(ctx, requested, id)
			if err != nil {
				return microsite.Microsite{}, svcerrors.Internal("check slug", err)
			}
			if taken {
				return microsite.Microsite{}, svcerrors.Conflict(msgSlugExists, nil)
			}
		}
		existing.Slug = requested
	} else {
		existing.Slug = oldSlug
	}
	if err := existing.Validate(); err != nil {
		return microsite.Microsite{}, validationError(err)
	}

	updated, err := s.store.UpdateMicrosite(ctx, existing)
	if err != nil {
		return microsite.Microsite{}, storeError(err)
	}
	s.invalidate(ctx, oldSlug, updated.Slug)
	s.log.WithContext(ctx).WithField("microsite_id", id).Info("microsite updated")
	return updated, nil
}

// Delete removes a microsite.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.store.GetMicrosite(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if err := s.store.DeleteMicrosite(ctx, id); err != nil {
		return storeError(err)
	}
	s.invalidate(ctx, existing.Slug)
	s.log.WithContext(ctx).WithField("microsite_id", id).Info("microsite deleted")
	return nil
}

// UploadMedia stores f and records its URL on field.
func (s *Service) UploadMedia(ctx context.Context, id int64, field microsite.MediaField, f media.File) (microsite.Microsite, string, error) {
	if s.uploader == nil {
		return microsite.Microsite{}, "", svcerrors.Unavailable("media uploads are not configured", nil)
	}
	if err := media.CheckFile(f, s.maxBytes); err != nil {
		var unsupported *media.ErrUnsupportedType
		if errors.As(err, &unsupported) {
			return microsite.Microsite{}, "", svcerrors.BadRequest(err.Error())
		}
		if s.maxBytes > 0 && f.Size > s.maxBytes {
			return microsite.Microsite{}, "", svcerrors.PayloadTooLarge(s.maxBytes)
		}
		return microsite.Microsite{}, "", svcerrors.BadRequest(err.Error())
	}
	if media.IsVideo(f.ContentType) != field.AcceptsVideo() {
		return microsite.Microsite{}, "", svcerrors.BadRequest(fmt.Sprintf("%s does not accept %s", field, f.ContentType))
	}

	existing, err := s.store.GetMicrosite(ctx, id)
	if err != nil {
		return microsite.Microsite{}, "", storeError(err)
	}

	start := time.Now()
	url, err := s.uploader.Upload(ctx, f)
	metrics.RecordMediaUpload(s.uploader.Backend(), time.Since(start), err == nil)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("microsite_id", id).Error("media upload failed")
		return microsite.Microsite{}, "", svcerrors.Unavailable("Upload failed", err)
	}

	if err := existing.AttachMedia(field, url); err != nil {
		return microsite.Microsite{}, "", svcerrors.BadRequest(err.Error())
	}
	updated, err := s.store.UpdateMicrosite(ctx, existing)
	if err != nil {
		return microsite.Microsite{}, "", storeError(err)
	}
	s.invalidate(ctx, updated.Slug)
	s.log.WithContext(ctx).
		WithField("microsite_id", id).
		WithField("field", string(field)).
		Info("media attached")
	return updated, url, nil
}

// Stats returns counts by type plus the total.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	counts, err := s.store.CountMicrosites(ctx)
	if err != nil {
		return nil, svcerrors.Internal("count microsites", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	counts["total"] = total
	return counts, nil
}

// GetByName returns the first microsite with the given name.
func (s *Service) GetByName(ctx context.Context, name string) (microsite.Microsite, error) {
	m, err := s.store.GetMicrositeByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return microsite.Microsite{}, storeError(err)
	}
	return m, nil
}

// uniqueSlug returns the first free suffixed form of base, starting at
// suffix from, along with the suffix used.
func (s *Service) uniqueSlug(ctx context.Context, base string, excludeID int64, from int) (string, int, error) {
	for n := from; n <= maxSlugAttempt; n++ {
		candidate := microsite.WithSuffix(base, n)
		taken, err := s.store.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", 0, svcerrors.Internal("check slug", err)
		}
		if !taken {
			return candidate, n, nil
		}
	}
	return "", 0, svcerrors.Conflict(msgSlugExists, fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempt))
}

func (s *Service) invalidate(ctx context.Context, slugs ...string) {
	s.writes.Add(1)
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, slugKey(slug))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("microsite cache invalidation failed")
	}
}

func validationError(err error) error {
	fields := []string{err.Error()}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		fields = fields[:0]
		for _, e := range merr.Errors {
			fields = append(fields, e.Error())
		}
	}
	return svcerrors.Validation(strings.Join(fields, "; "), err).WithDetails("fields", fields)
}

func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return svcerrors.NotFound(msgNotFound)
	case errors.Is(err, storage.ErrConflict):
		if storage.ConflictField(err) == "slug" {
			return svcerrors.Conflict(msgSlugExists, err)
		}
		return svcerrors.Conflict(msgLinkExists, err)
	default:
		return svcerrors.Internal("microsite store", err)
	}
}
