package portal

import (
	"github.com/gofiber/fiber/v2"
)

// RouteAccess tags how sensitive a route is.
type RouteAccess int

const (
	// RoutePublic needs no session at all
	RoutePublic RouteAccess = iota
	// RouteAuthenticated needs any authenticated session, guests included
	RouteAuthenticated
	// RouteProfileEdit needs an authenticated, non-guest session
	RouteProfileEdit
)

// Verdict is a guard decision: either allow, or redirect and stop.
type Verdict struct {
	Allow    bool
	Redirect string
}

// Evaluate maps (session state, route sensitivity) to a verdict. It is a
// pure function; the middleware adapters below own the side effects.
func Evaluate(user *SessionUser, access RouteAccess) Verdict {
	switch access {
	case RoutePublic:
		return Verdict{Allow: true}
	case RouteAuthenticated:
		if user == nil {
			return Verdict{Redirect: "/login"}
		}
		return Verdict{Allow: true}
	case RouteProfileEdit:
		if user == nil {
			return Verdict{Redirect: "/login"}
		}
		if !user.Role.CanEditProfile() {
			return Verdict{Redirect: "/dashboard?error=guest_restricted"}
		}
		return Verdict{Allow: true}
	default:
		return Verdict{Redirect: "/login"}
	}
}

// ContextUserKey is where the guard parks the session user for handlers.
const ContextUserKey = "current_user"

// Protect returns a middleware enforcing the given route sensitivity and,
// when allowed, injecting the session user into the request context.
func (m *SessionManager) Protect(access RouteAccess) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := m.Current(c)
		if err != nil {
			user = nil
		}

		verdict := Evaluate(user, access)
		if !verdict.Allow {
			return c.Redirect(verdict.Redirect, fiber.StatusSeeOther)
		}

		if user != nil {
			c.Locals(ContextUserKey, user)
		}
		return c.Next()
	}
}

// CurrentUser pulls the guard-injected session user out of the request.
func CurrentUser(c *fiber.Ctx) (*SessionUser, bool) {
	user, ok := c.Locals(ContextUserKey).(*SessionUser)
	return user, ok && user != nil
}
