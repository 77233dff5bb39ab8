package portal_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	portal "github.com/goliatone/go-auth-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionHarness struct {
	app     *fiber.App
	manager *portal.SessionManager
}

func newSessionHarness(t *testing.T, clock func() time.Time) *sessionHarness {
	t.Helper()

	manager := portal.NewSessionManager(portal.Config{SessionTTL: time.Hour})
	if clock != nil {
		manager.WithClock(clock)
	}

	app := fiber.New()

	app.Post("/establish", func(c *fiber.Ctx) error {
		if err := manager.Establish(c, 7, "Ada Lovelace", "ada@example.com", portal.RoleAdmin); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/establish-guest", func(c *fiber.Ctx) error {
		// a caller-supplied identity must not survive the guest sentinel
		if err := manager.Establish(c, portal.GuestUserID, "Mallory", "mallory@example.com", portal.RoleUser); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/rename", func(c *fiber.Ctx) error {
		if err := manager.UpdateCachedProfile(c, "Ada King", "ada.king@example.com"); err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/destroy", func(c *fiber.Ctx) error {
		if err := manager.Destroy(c); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/me", func(c *fiber.Ctx) error {
		user, err := manager.Current(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(user)
	})

	return &sessionHarness{app: app, manager: manager}
}

func (h *sessionHarness) do(t *testing.T, method, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_id" {
			return cookie
		}
	}
	t.Fatal("no session_id cookie in response")
	return nil
}

func decodeUser(t *testing.T, resp *http.Response) portal.SessionUser {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var user portal.SessionUser
	require.NoError(t, json.Unmarshal(raw, &user))
	return user
}

func TestSessionAnonymousByDefault(t *testing.T) {
	h := newSessionHarness(t, nil)

	resp := h.do(t, http.MethodGet, "/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionEstablishRoundTrip(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	h := newSessionHarness(t, func() time.Time { return started })

	resp := h.do(t, http.MethodPost, "/establish")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	cookie := sessionCookie(t, resp)
	assert.NotEmpty(t, cookie.Value)

	me := h.do(t, http.MethodGet, "/me", cookie)
	require.Equal(t, http.StatusOK, me.StatusCode)

	user := decodeUser(t, me)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, portal.RoleAdmin, user.Role)
	assert.Equal(t, started.Unix(), user.StartedAt.Unix())
	assert.False(t, user.IsGuest())
}

func TestSessionGuestSentinelForcesPlaceholders(t *testing.T) {
	h := newSessionHarness(t, nil)

	resp := h.do(t, http.MethodPost, "/establish-guest")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	me := h.do(t, http.MethodGet, "/me", cookie)
	require.Equal(t, http.StatusOK, me.StatusCode)

	user := decodeUser(t, me)
	assert.Equal(t, portal.GuestUserID, user.ID)
	assert.Equal(t, portal.GuestName, user.Name)
	assert.Equal(t, portal.GuestEmail, user.Email)
	assert.Equal(t, portal.RoleGuest, user.Role)
	assert.True(t, user.IsGuest())
}

func TestSessionIdentifierRotatesOnReLogin(t *testing.T) {
	h := newSessionHarness(t, nil)

	first := sessionCookie(t, h.do(t, http.MethodPost, "/establish"))
	second := sessionCookie(t, h.do(t, http.MethodPost, "/establish", first))

	assert.NotEqual(t, first.Value, second.Value)
}

func TestSessionUpdateCachedProfile(t *testing.T) {
	h := newSessionHarness(t, nil)

	cookie := sessionCookie(t, h.do(t, http.MethodPost, "/establish"))

	resp := h.do(t, http.MethodPost, "/rename", cookie)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	user := decodeUser(t, h.do(t, http.MethodGet, "/me", cookie))
	assert.Equal(t, "Ada King", user.Name)
	assert.Equal(t, "ada.king@example.com", user.Email)

	// id and role survive the cache update untouched
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, portal.RoleAdmin, user.Role)
}

func TestSessionUpdateCachedProfileNeedsSession(t *testing.T) {
	h := newSessionHarness(t, nil)

	resp := h.do(t, http.MethodPost, "/rename")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionDestroy(t *testing.T) {
	h := newSessionHarness(t, nil)

	cookie := sessionCookie(t, h.do(t, http.MethodPost, "/establish"))

	resp := h.do(t, http.MethodPost, "/destroy", cookie)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	me := h.do(t, http.MethodGet, "/me", cookie)
	assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
}
