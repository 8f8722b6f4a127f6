package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// Users is the resource client for dashboard accounts. It keeps the last
// fetched list as local state and updates it after each successful write.
type Users struct {
	c     *Client
	mu    sync.RWMutex
	items []User
}

type userEnvelope struct {
	Msg  string `json:"msg"`
	User User   `json:"user"`
}

// Get returns all users, reusing the cached list unless force is set.
func (r *Users) Get(ctx context.Context, force bool) ([]User, error) {
	if !force {
		if cached, ok := r.c.cache.Get(EntityUsers); ok {
			list := append([]User(nil), cached.([]User)...)
			r.setItems(list)
			return list, nil
		}
	}
	var resp struct {
		Users []User `json:"users"`
	}
	if err := r.c.do(ctx, http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Users == nil {
		resp.Users = []User{}
	}
	r.c.cache.Set(EntityUsers, append([]User(nil), resp.Users...))
	r.setItems(resp.Users)
	return append([]User(nil), resp.Users...), nil
}

// GetByID fetches one user.
func (r *Users) GetByID(ctx context.Context, id int64) (User, error) {
	var resp userEnvelope
	err := r.c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &resp)
	return resp.User, err
}

// GetByUserName fetches one user by user name.
func (r *Users) GetByUserName(ctx context.Context, userName string) (User, error) {
	var resp userEnvelope
	err := r.c.do(ctx, http.MethodGet, "/users/username/"+url.PathEscape(userName), nil, &resp)
	return resp.User, err
}

// Create registers a user through /auth/register and appends it locally.
func (r *Users) Create(ctx context.Context, in NewUser) (User, error) {
	var resp userEnvelope
	if err := r.c.do(ctx, http.MethodPost, "/auth/register", in, &resp); err != nil {
		return User{}, err
	}
	r.c.cache.Invalidate(EntityUsers)
	r.mu.Lock()
	r.items = append(r.items, resp.User)
	r.mu.Unlock()
	return resp.User, nil
}

// Update applies patch and replaces the local copy.
func (r *Users) Update(ctx context.Context, id int64, patch UserPatch) (User, error) {
	var resp userEnvelope
	if err := r.c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), patch, &resp); err != nil {
		return User{}, err
	}
	r.c.cache.Invalidate(EntityUsers)
	r.mu.Lock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i] = resp.User
		}
	}
	r.mu.Unlock()
	return resp.User, nil
}

// ChangePassword replaces the caller's own password.
func (r *Users) ChangePassword(ctx context.Context, id int64, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return r.c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d/password", id), body, nil)
}

// Remove deletes a user and filters it out locally.
func (r *Users) Remove(ctx context.Context, id int64) error {
	if err := r.c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil); err != nil {
		return err
	}
	r.c.cache.Invalidate(EntityUsers)
	r.mu.Lock()
	kept := r.items[:0]
	for _, u := range r.items {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	r.items = kept
	r.mu.Unlock()
	return nil
}

// Items returns a copy of the local list.
func (r *Users) Items() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]User(nil), r.items...)
}

func (r *Users) setItems(list []User) {
	r.mu.Lock()
	r.items = append([]User(nil), list...)
	r.mu.Unlock()
}
