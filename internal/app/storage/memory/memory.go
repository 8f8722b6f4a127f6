package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/microsite"
	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu           sync.RWMutex
	nextUserID   int64
	nextSiteID   int64
	users        map[int64]user.User
	microsites   map[int64]microsite.Microsite
	usersByEmail map[string]int64
	usersByName  map[string]int64
	sitesBySlug  map[string]int64
	sitesByLink  map[string]int64
	now          func() time.Time
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.MicrositeStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextUserID:   1,
		nextSiteID:   1,
		users:        make(map[int64]user.User),
		microsites:   make(map[int64]microsite.Microsite),
		usersByEmail: make(map[string]int64),
		usersByName:  make(map[string]int64),
		sitesBySlug:  make(map[string]int64),
		sitesByLink:  make(map[string]int64),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore implementation -----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByEmail[emailKey(u.Email)]; taken {
		return user.User{}, storage.Conflict("email")
	}
	if _, taken := s.usersByName[u.UserName]; taken {
		return user.User{}, storage.Conflict("userName")
	}

	u.ID = s.nextUserID
	s.nextUserID++
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	u = cloneUser(u)
	s.users[u.ID] = u
	s.usersByEmail[emailKey(u.Email)] = u.ID
	s.usersByName[u.UserName] = u.ID
	return cloneUser(u), nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	if id, taken := s.usersByEmail[emailKey(u.Email)]; taken && id != u.ID {
		return user.User{}, storage.Conflict("email")
	}
	if id, taken := s.usersByName[u.UserName]; taken && id != u.ID {
		return user.User{}, storage.Conflict("userName")
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = s.now()

	delete(s.usersByEmail, emailKey(original.Email))
	delete(s.usersByName, original.UserName)
	u = cloneUser(u)
	s.users[u.ID] = u
	s.usersByEmail[emailKey(u.Email)] = u.ID
	s.usersByName[u.UserName] = u.ID
	return cloneUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	s.mu.RLock()
	id, ok := s.usersByEmail[emailKey(email)]
	s.mu.RUnlock()
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUserByUserName(ctx context.Context, userName string) (user.User, error) {
	s.mu.RLock()
	id, ok := s.usersByName[userName]
	s.mu.RUnlock()
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) ListUsers(_ context.Context, filter storage.UserFilter) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if search != "" && !containsAny(search, u.FirstName, u.LastName, u.UserName, u.Email) {
			continue
		}
		result = append(result, cloneUser(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, filter.Page), nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	delete(s.usersByEmail, emailKey(u.Email))
	delete(s.usersByName, u.UserName)
	return nil
}

func (s *Store) CountUsers(_ context.Context) (storage.UserCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := storage.UserCounts{ByRole: make(map[string]int)}
	for _, u := range s.users {
		counts.Total++
		if u.Status == user.StatusActive {
			counts.Active++
		}
		counts.ByRole[u.Role]++
	}
	return counts, nil
}

// MicrositeStore implementation ------------------------------------------------

func (s *Store) CreateMicrosite(_ context.Context, m microsite.Microsite) (microsite.Microsite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.sitesBySlug[m.Slug]; taken {
		return microsite.Microsite{}, storage.Conflict("slug")
	}
	if _, taken := s.sitesByLink[m.Link]; taken {
		return microsite.Microsite{}, storage.Conflict("link")
	}

	m.ID = s.nextSiteID
	s.nextSiteID++
	now := s.now()
	m.CreatedAt = now
	m.UpdatedAt = now

	m = m.Clone()
	s.microsites[m.ID] = m
	s.sitesBySlug[m.Slug] = m.ID
	s.sitesByLink[m.Link] = m.ID
	return m.Clone(), nil
}

func (s *Store) UpdateMicrosite(_ context.Context, m microsite.Microsite) (microsite.Microsite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.microsites[m.ID]
	if !ok {
		return microsite.Microsite{}, storage.ErrNotFound
	}
	if id, taken := s.sitesBySlug[m.Slug]; taken && id != m.ID {
		return microsite.Microsite{}, storage.Conflict("slug")
	}
	if id, taken := s.sitesByLink[m.Link]; taken && id != m.ID {
		return microsite.Microsite{}, storage.Conflict("link")
	}

	m.CreatedAt = original.CreatedAt
	m.UpdatedAt = s.now()

	delete(s.sitesBySlug, original.Slug)
	delete(s.sitesByLink, original.Link)
	m = m.Clone()
	s.microsites[m.ID] = m
	s.sitesBySlug[m.Slug] = m.ID
	s.sitesByLink[m.Link] = m.ID
	return m.Clone(), nil
}

func (s *Store) GetMicrosite(_ context.Context, id int64) (microsite.Microsite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.microsites[id]
	if !ok {
		return microsite.Microsite{}, storage.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *Store) GetMicrositeBySlug(ctx context.Context, slug string) (microsite.Microsite, error) {
	s.mu.RLock()
	id, ok := s.sitesBySlug[slug]
	s.mu.RUnlock()
	if !ok {
		return microsite.Microsite{}, storage.ErrNotFound
	}
	return s.GetMicrosite(ctx, id)
}

func (s *Store) GetMicrositeByName(_ context.Context, name string) (microsite.Microsite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found microsite.Microsite
		ok    bool
	)
	for _, m := range s.microsites {
		if m.Name == name && (!ok || m.ID < found.ID) {
			found, ok = m, true
		}
	}
	if !ok {
		return microsite.Microsite{}, storage.ErrNotFound
	}
	return found.Clone(), nil
}

func (s *Store) ListMicrosites(_ context.Context, filter storage.MicrositeFilter) ([]microsite.Microsite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]microsite.Microsite, 0, len(s.microsites))
	for _, m := range s.microsites {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if search != "" && !containsAny(search, m.Name, m.Slug, m.Link) {
			continue
		}
		result = append(result, m.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, filter.Page), nil
}

func (s *Store) DeleteMicrosite(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.microsites[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.microsites, id)
	delete(s.sitesBySlug, m.Slug)
	delete(s.sitesByLink, m.Link)
	return nil
}

func (s *Store) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sitesBySlug[slug]
	return ok && id != excludeID, nil
}

func (s *Store) CountMicrosites(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{microsite.TypeConsumer: 0, microsite.TypeBusiness: 0}
	for _, m := range s.microsites {
		counts[m.Type]++
	}
	return counts, nil
}

// helpers ----------------------------------------------------------------------

func cloneUser(u user.User) user.User {
	if u.BirthDate != nil {
		bd := *u.BirthDate
		u.BirthDate = &bd
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		u.Avatar = &avatar
	}
	return u
}

func containsAny(needle string, haystack ...string) bool {
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page storage.Page) []T {
	if page.Offset > 0 {
		if page.Offset >= len(items) {
			return []T{}
		}
		items = items[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
