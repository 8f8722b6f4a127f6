package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/microsite"
	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
)

func newUser(name, email string) user.User {
	u := user.User{FirstName: "F", LastName: "L", UserName: name, Email: email, PasswordHash: "hash"}
	u.ApplyDefaults()
	return u
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	created, err := store.CreateUser(ctx, newUser("ada", "ada@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created user: %+v", created)
	}

	byEmail, err := store.GetUserByEmail(ctx, "ADA@example.com")
	if err != nil || byEmail.ID != created.ID {
		t.Fatalf("get by email: %v %+v", err, byEmail)
	}

	created.UserName = "ada2"
	updated, err := store.UpdateUser(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := store.GetUserByUserName(ctx, "ada"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("old username should be released, got %v", err)
	}
	if got, _ := store.GetUserByUserName(ctx, "ada2"); got.ID != updated.ID {
		t.Fatalf("new username not indexed")
	}

	if err := store.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetUser(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.DeleteUser(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.CreateUser(ctx, newUser("ada", "ada@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := store.CreateUser(ctx, newUser("other", "ada@example.com"))
	if !errors.Is(err, storage.ErrConflict) || storage.ConflictField(err) != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}
	_, err = store.CreateUser(ctx, newUser("ada", "other@example.com"))
	if storage.ConflictField(err) != "userName" {
		t.Fatalf("expected userName conflict, got %v", err)
	}

	second, _ := store.CreateUser(ctx, newUser("bob", "bob@example.com"))
	second.Email = "ada@example.com"
	if _, err := store.UpdateUser(ctx, second); storage.ConflictField(err) != "email" {
		t.Fatalf("expected email conflict on update, got %v", err)
	}
}

func TestListUsersFilters(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, name := range []string{"ada", "bob", "cleo"} {
		u := newUser(name, name+"@example.com")
		if name == "bob" {
			u.Role = user.RoleAdmin
			u.Status = user.StatusInactive
		}
		if _, err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, _ := store.ListUsers(ctx, storage.UserFilter{})
	if len(all) != 3 || all[0].UserName != "ada" {
		t.Fatalf("unexpected list: %+v", all)
	}
	admins, _ := store.ListUsers(ctx, storage.UserFilter{Role: user.RoleAdmin})
	if len(admins) != 1 || admins[0].UserName != "bob" {
		t.Fatalf("role filter: %+v", admins)
	}
	search, _ := store.ListUsers(ctx, storage.UserFilter{Search: "CLE"})
	if len(search) != 1 || search[0].UserName != "cleo" {
		t.Fatalf("search filter: %+v", search)
	}
	page, _ := store.ListUsers(ctx, storage.UserFilter{Page: storage.Page{Limit: 1, Offset: 1}})
	if len(page) != 1 || page[0].UserName != "bob" {
		t.Fatalf("page: %+v", page)
	}
	empty, _ := store.ListUsers(ctx, storage.UserFilter{Page: storage.Page{Offset: 10}})
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}

	counts, _ := store.CountUsers(ctx)
	if counts.Total != 3 || counts.Active != 2 || counts.ByRole[user.RoleAdmin] != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestMicrositeLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	m := microsite.Microsite{Name: "Acme", Slug: "acme", Link: "https://acme.example", MarketingImgs: []string{"a"}}
	created, err := store.CreateMicrosite(ctx, m)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m.MarketingImgs[0] = "mutated"
	stored, _ := store.GetMicrosite(ctx, created.ID)
	if stored.MarketingImgs[0] != "a" {
		t.Fatal("store must not alias caller slices")
	}
	if stored.MarketingVids == nil {
		t.Fatal("expected empty, non-nil marketingVids")
	}

	if _, err := store.CreateMicrosite(ctx, microsite.Microsite{Name: "x", Slug: "acme", Link: "https://x.example"}); storage.ConflictField(err) != "slug" {
		t.Fatalf("expected slug conflict, got %v", err)
	}
	if _, err := store.CreateMicrosite(ctx, microsite.Microsite{Name: "x", Slug: "x", Link: "https://acme.example"}); storage.ConflictField(err) != "link" {
		t.Fatalf("expected link conflict, got %v", err)
	}

	exists, _ := store.SlugExists(ctx, "acme", 0)
	if !exists {
		t.Fatal("expected slug to exist")
	}
	exists, _ = store.SlugExists(ctx, "acme", created.ID)
	if exists {
		t.Fatal("slug owned by excluded id should not count")
	}

	created.Slug = "acme-corp"
	if _, err := store.UpdateMicrosite(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := store.GetMicrositeBySlug(ctx, "acme"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("old slug should be gone, got %v", err)
	}
	byName, err := store.GetMicrositeByName(ctx, "Acme")
	if err != nil || byName.Slug != "acme-corp" {
		t.Fatalf("by name: %v %+v", err, byName)
	}

	counts, _ := store.CountMicrosites(ctx)
	if counts[microsite.TypeConsumer] != 1 || counts[microsite.TypeBusiness] != 0 {
		t.Fatalf("counts = %v", counts)
	}
	if err := store.DeleteMicrosite(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateUser(ctx, newUser("same", "same@example.com"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful create, got %d", ok)
	}
}
