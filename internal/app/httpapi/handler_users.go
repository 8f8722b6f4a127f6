package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/auth"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/users"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
	"github.com/sbmwhylt/wlt-team-space/internal/httputil"
	"github.com/sbmwhylt/wlt-team-space/internal/middleware"
)

const (
	msgUserRegistered  = "User registered successfully"
	msgUserUpdated     = "User updated successfully"
	msgUserDeleted     = "User deleted successfully"
	msgPasswordUpdated = "Password updated successfully"
)

type userEnvelope struct {
	Msg  string    `json:"msg,omitempty"`
	User user.User `json:"user"`
}

func (h *handler) authRoutes(r *mux.Router) {
	login := http.Handler(http.HandlerFunc(h.login))
	if h.opts.LoginLimiter != nil {
		login = h.opts.LoginLimiter.Handler(login)
	}
	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.Handle("/auth/login", login).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", h.me).Methods(http.MethodGet)
}

func (h *handler) userRoutes(r *mux.Router) {
	r.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/username/{userName}", h.getUserByUserName).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.getUser).Methods(http.MethodGet)
	r.Handle("/users/{id}", middleware.RequireUserID(http.HandlerFunc(h.updateUser))).Methods(http.MethodPut)
	r.Handle("/users/{id}/password", middleware.RequireUserID(http.HandlerFunc(h.changePassword))).Methods(http.MethodPut)
	r.Handle("/users/{id}", h.adminOnly(h.deleteUser)).Methods(http.MethodDelete)
}

// guardSuperAdmin rejects callers below super-admin that try to grant the
// super-admin role or act on a super-admin account. It reports whether the
// request may proceed.
func (h *handler) guardSuperAdmin(w http.ResponseWriter, r *http.Request, claims *auth.Claims, role string, targetID int64) bool {
	if claims != nil && claims.Role == user.RoleSuperAdmin {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(role), user.RoleSuperAdmin) {
		h.log.LogSecurityEvent(r.Context(), "forbidden_role_grant", map[string]interface{}{"role": user.RoleSuperAdmin})
		httputil.Forbidden(w, "Only super-admins can assign the super-admin role")
		return false
	}
	if targetID == 0 || (claims != nil && claims.UserID == targetID) {
		return true
	}
	target, err := h.app.Users.Get(r.Context(), targetID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return false
	}
	if target.Role == user.RoleSuperAdmin {
		h.log.LogSecurityEvent(r.Context(), "forbidden_super_admin_target", map[string]interface{}{"target_id": targetID})
		httputil.Forbidden(w, "Only super-admins can modify a super-admin")
		return false
	}
	return true
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if !httputil.DecodeJSON(w, r, &in) {
		return
	}
	claims := claimsOf(r)
	privileged := claims != nil && claims.IsAdmin()
	if privileged && !h.guardSuperAdmin(w, r, claims, in.Role, 0) {
		return
	}

	created, err := h.app.Users.Register(r.Context(), in, privileged)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, userEnvelope{Msg: msgUserRegistered, User: created})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !httputil.DecodeJSON(w, r, &payload) {
		return
	}
	res, err := h.app.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Auth.Me(r.Context(), claimsOf(r))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userEnvelope{User: u})
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := storage.UserFilter{
		Role:   strings.ToLower(strings.TrimSpace(q.Get("role"))),
		Status: strings.ToLower(strings.TrimSpace(q.Get("status"))),
		Search: strings.TrimSpace(q.Get("q")),
		Page:   page,
	}
	list, err := h.app.Users.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": list})
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.app.Users.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userEnvelope{User: u})
}

func (h *handler) getUserByUserName(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Users.GetByUserName(r.Context(), mux.Vars(r)["userName"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userEnvelope{User: u})
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	claims := claimsOf(r)
	if claims.UserID != id && !claims.IsAdmin() {
		h.log.LogSecurityEvent(r.Context(), "forbidden_user_update", map[string]interface{}{"target_id": id})
		httputil.Forbidden(w, "You can only update your own profile")
		return
	}

	var patch user.Patch
	if !httputil.DecodeJSON(w, r, &patch) {
		return
	}
	if patch.ChangesPrivileges() && !claims.IsAdmin() {
		httputil.Forbidden(w, "Only admins can assign roles or status")
		return
	}
	role := ""
	if patch.Role != nil {
		role = *patch.Role
	}
	if !h.guardSuperAdmin(w, r, claims, role, id) {
		return
	}

	updated, err := h.app.Users.Update(r.Context(), id, patch)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userEnvelope{Msg: msgUserUpdated, User: updated})
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if claimsOf(r).UserID != id {
		httputil.Forbidden(w, "You can only change your own password")
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !httputil.DecodeJSON(w, r, &payload) {
		return
	}
	if err := h.app.Users.ChangePassword(r.Context(), id, payload.CurrentPassword, payload.NewPassword); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"msg": msgPasswordUpdated})
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.guardSuperAdmin(w, r, claimsOf(r), "", id) {
		return
	}
	if err := h.app.Users.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"msg": msgUserDeleted})
}
