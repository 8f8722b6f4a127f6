package users

import (
	"context"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage/memory"
	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
)

func newService() (*Service, *memory.Store) {
	store := memory.New()
	return New(store, nil, WithBcryptCost(bcrypt.MinCost)), store
}

func input(name, email string) RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		UserName:  name,
		Email:     email,
		Password:  "correct-horse",
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	if got := svcerrors.HTTPStatus(err); got != status {
		t.Fatalf("status = %d, want %d (err: %v)", got, status, err)
	}
}

func TestRegister(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	created, err := svc.Register(ctx, input("ada", " Ada@Example.com "), false)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.PasswordHash != "" {
		t.Fatal("password hash must not be returned")
	}
	if created.Email != "ada@example.com" || created.Gender != user.GenderMale || created.Role != user.RoleUser || created.Status != user.StatusActive {
		t.Fatalf("unexpected defaults: %+v", created)
	}

	stored, _ := store.GetUser(ctx, created.ID)
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")) != nil {
		t.Fatal("stored hash does not match password")
	}
}

func TestRegisterConflicts(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, input("ada", "ada@example.com"), false); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, input("other", "ada@example.com"), false)
	assertStatus(t, err, http.StatusConflict)
	if se := svcerrors.GetServiceError(err); se.Message != "Email already exists" {
		t.Fatalf("message = %q", se.Message)
	}

	_, err = svc.Register(ctx, input("ada", "other@example.com"), false)
	if se := svcerrors.GetServiceError(err); se == nil || se.Message != "Username already taken" {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	in := input("", "bad")
	in.Password = "short"

	_, err := svc.Register(context.Background(), in, false)
	assertStatus(t, err, http.StatusBadRequest)
	fields, _ := svcerrors.GetServiceError(err).Details["fields"].([]string)
	if len(fields) != 3 {
		t.Fatalf("expected 3 field errors, got %v", fields)
	}
}

func TestRegisterRoleRequiresPrivilege(t *testing.T) {
	svc, _ := newService()
	in := input("boss", "boss@example.com")
	in.Role = user.RoleAdmin

	_, err := svc.Register(context.Background(), in, false)
	assertStatus(t, err, http.StatusForbidden)

	created, err := svc.Register(context.Background(), in, true)
	if err != nil {
		t.Fatalf("privileged register: %v", err)
	}
	if created.Role != user.RoleAdmin {
		t.Fatalf("role = %q", created.Role)
	}
}

func TestUpdateRehashesPassword(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	created, _ := svc.Register(ctx, input("ada", "ada@example.com"), false)

	pw := "new-password-1"
	name := "Augusta"
	updated, err := svc.Update(ctx, created.ID, user.Patch{FirstName: &name, Password: &pw})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Augusta" || updated.PasswordHash != "" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	stored, _ := store.GetUser(ctx, created.ID)
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(pw)) != nil {
		t.Fatal("password not re-hashed")
	}

	_, err = svc.Update(ctx, 999, user.Patch{FirstName: &name})
	assertStatus(t, err, http.StatusNotFound)
}

func TestUpdateConflict(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, _ = svc.Register(ctx, input("ada", "ada@example.com"), false)
	bob, _ := svc.Register(ctx, input("bob", "bob@example.com"), false)

	taken := "ada"
	_, err := svc.Update(ctx, bob.ID, user.Patch{UserName: &taken})
	assertStatus(t, err, http.StatusConflict)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, _ := svc.Register(ctx, input("ada", "ada@example.com"), false)

	err := svc.ChangePassword(ctx, created.ID, "wrong-password", "another-pass")
	assertStatus(t, err, http.StatusBadRequest)

	if err := svc.ChangePassword(ctx, created.ID, "correct-horse", "another-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, ok, _ := svc.Authenticate(ctx, "ada@example.com", "another-pass"); !ok {
		t.Fatal("new password does not authenticate")
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, _ = svc.Register(ctx, input("ada", "ada@example.com"), false)

	if _, ok, err := svc.Authenticate(ctx, "ada@example.com", "correct-horse"); !ok || err != nil {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := svc.Authenticate(ctx, "ada@example.com", "nope"); ok {
		t.Fatal("wrong password authenticated")
	}
	if _, ok, err := svc.Authenticate(ctx, "ghost@example.com", "nope"); ok || err != nil {
		t.Fatalf("unknown email: ok=%v err=%v", ok, err)
	}
}

func TestListGetDeleteStats(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	ada, _ := svc.Register(ctx, input("ada", "ada@example.com"), false)
	_, _ = svc.Register(ctx, input("bob", "bob@example.com"), false)

	list, err := svc.List(ctx, storage.UserFilter{})
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	for _, u := range list {
		if u.PasswordHash != "" {
			t.Fatal("list leaked password hash")
		}
	}

	got, err := svc.GetByUserName(ctx, "ada")
	if err != nil || got.ID != ada.ID {
		t.Fatalf("get by username: %v", err)
	}

	if err := svc.Delete(ctx, ada.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.Get(ctx, ada.ID)
	assertStatus(t, err, http.StatusNotFound)
	assertStatus(t, svc.Delete(ctx, ada.ID), http.StatusNotFound)

	stats, _ := svc.Stats(ctx)
	if stats.Total != 1 || stats.Active != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
