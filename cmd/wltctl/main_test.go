package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbmwhylt/wlt-team-space/pkg/client"
	"github.com/sbmwhylt/wlt-team-space/pkg/testutil"
)

type harness struct {
	t       *testing.T
	api     *testutil.APIServer
	session string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:       t,
		api:     testutil.NewAPIServer(t),
		session: filepath.Join(t.TempDir(), "wltctl", "session.json"),
	}
}

// run executes one wltctl invocation and returns stdout, stderr and the exit code.
func (h *harness) run(args ...string) (string, string, int) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--api", h.api.BaseURL(), "--session", h.session}, args...)
	code := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, code := h.run(args...)
	if code != 0 {
		h.t.Fatalf("wltctl %s: exit %d: %s", strings.Join(args, " "), code, errOut)
	}
	return out
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("login", "--email", testutil.AdminEmail, "--password", testutil.AdminPassword)
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not logged in")

	_, errOut, code = h.run("login", "--email", testutil.AdminEmail, "--password", "wrong")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	out := h.mustRun("login", "--email", testutil.AdminEmail, "--password", testutil.AdminPassword)
	assert.Contains(t, out, "Logged in as "+testutil.AdminUserName+" (super-admin)")

	info, err := os.Stat(h.session)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out = h.mustRun("whoami")
	assert.Contains(t, out, testutil.AdminEmail)
	assert.Contains(t, out, "Session expires")

	h.mustRun("logout")
	_, err = os.Stat(h.session)
	assert.True(t, os.IsNotExist(err))
}

func TestLoginReadsPasswordFromEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv(passwordEnv, testutil.AdminPassword)
	out := h.mustRun("login", "--email", testutil.AdminEmail)
	assert.Contains(t, out, "Logged in")
}

func TestUsersCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("users", "create",
		"--first-name", "Ada", "--last-name", "Lovelace",
		"--username", "ada", "--email", "ada@wlt.test",
		"--password", "secret-pass", "--role", "admin")
	assert.Contains(t, out, "User ada created")

	out = h.mustRun("users", "list")
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "ada@wlt.test")
	assert.Contains(t, out, testutil.AdminEmail)

	fetched, ok := client.SharedCache().FetchedAt(client.EntityUsers)
	require.True(t, ok, "users list not cached")
	out = h.mustRun("users", "list", "--role", "admin")
	assert.Contains(t, out, "ada@wlt.test")
	assert.NotContains(t, out, testutil.AdminEmail)
	again, _ := client.SharedCache().FetchedAt(client.EntityUsers)
	assert.Equal(t, fetched, again, "filtered listing refetched instead of using the cache")

	out = h.mustRun("-o", "json", "users", "get", "ada")
	var ada client.User
	require.NoError(t, json.Unmarshal([]byte(out), &ada))
	assert.Equal(t, "Lovelace", ada.LastName)

	id := jsonID(t, out)
	h.mustRun("users", "update", id, "--first-name", "Augusta")
	out = h.mustRun("users", "get", id)
	assert.Contains(t, out, "Augusta Lovelace")

	_, errOut, code := h.run("users", "update", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "nothing to update")

	h.mustRun("users", "delete", id)
	_, errOut, code = h.run("users", "get", id)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)
}

func TestMicrositeCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("microsites", "create",
		"--name", "Acme Corp", "--link", "https://acme.example",
		"--type", "business", "--twitter", "https://twitter.com/acme")
	assert.Contains(t, out, "Microsite acme-corp created")

	out = h.mustRun("microsites", "list", "--type", "business")
	assert.Contains(t, out, "acme-corp")
	out = h.mustRun("microsites", "list", "--type", "consumer")
	assert.NotContains(t, out, "acme-corp")

	out = h.mustRun("-o", "json", "microsites", "get", "acme-corp")
	id := jsonID(t, out)

	h.mustRun("microsites", "update", id, "--about", "We make anvils.")
	out = h.mustRun("microsites", "get", id)
	assert.Contains(t, out, "We make anvils.")

	img := filepath.Join(t.TempDir(), "hero.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG"), 0o600))
	out = h.mustRun("microsites", "upload", id, "--field", "banner", img)
	assert.Contains(t, out, testutil.CDNBaseURL+"hero.png")

	out = h.mustRun("stats")
	assert.Contains(t, out, "Business:")

	h.mustRun("logout")
	out = h.mustRun("microsites", "get", "acme-corp")
	assert.Contains(t, out, "Acme Corp", "slug lookup works without a session")
	_, _, code := h.run("microsites", "list")
	assert.Equal(t, 1, code)

	h.login()
	h.mustRun("microsites", "delete", id)
	_, _, code = h.run("microsites", "get", "acme-corp")
	assert.Equal(t, 1, code)
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	_, errOut, code := h.run("-o", "yaml", "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown output format")
}

func jsonID(t *testing.T, raw string) string {
	t.Helper()
	var v struct {
		ID json.Number `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v.ID.String()
}
