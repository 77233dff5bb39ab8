package portal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	sessionKeyUserID    = "user_id"
	sessionKeyUserName  = "user_name"
	sessionKeyUserEmail = "user_email"
	sessionKeyUserRole  = "user_role"
	sessionKeyStartedAt = "started_at"
)

// Guest sentinel values. A guest session is never backed by a store record;
// user_id 0 is reserved to mark it.
const (
	GuestUserID = int64(0)
	GuestName   = "Guest User"
	GuestEmail  = "guest@system.local"
)

// SessionUser holds the session's cached view of the acting user. The
// credential store stays the durable source of truth; every cached field is
// overwritten whenever the store value changes.
type SessionUser struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	StartedAt time.Time
}

// IsGuest reports whether this session uses the guest sentinel.
func (s *SessionUser) IsGuest() bool {
	return s.Role == RoleGuest
}

// SessionManager owns the server-side session lifecycle. All mutation goes
// through Establish, UpdateCachedProfile and Destroy; handlers never touch
// raw session fields, so a client-controlled value cannot leak into role
// state.
type SessionManager struct {
	store *session.Store
	now   func() time.Time
}

// NewSessionManager builds a manager over fiber's session middleware with
// an opaque uuid session identifier and the configured idle expiry.
func NewSessionManager(cfg Config) *SessionManager {
	return &SessionManager{
		store: session.New(session.Config{
			Expiration:     cfg.GetSessionTTL(),
			KeyLookup:      "cookie:session_id",
			KeyGenerator:   uuid.NewString,
			CookieHTTPOnly: true,
		}),
		now: time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (m *SessionManager) WithClock(clock func() time.Time) *SessionManager {
	if clock != nil {
		m.now = clock
	}
	return m
}

// Establish transitions the session to Authenticated, overwriting all
// fields. The guest sentinel id forces the fixed guest placeholders no
// matter what the caller passed alongside it.
func (m *SessionManager) Establish(c *fiber.Ctx, id int64, name, email string, role Role) error {
	if id == GuestUserID || role == RoleGuest {
		id, name, email, role = GuestUserID, GuestName, GuestEmail, RoleGuest
	}

	sess, err := m.store.Get(c)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not open session")
	}

	// a login on a pre-existing session gets a new identifier
	if !sess.Fresh() {
		if err := sess.Regenerate(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not regenerate session id")
		}
	}

	sess.Set(sessionKeyUserID, id)
	sess.Set(sessionKeyUserName, name)
	sess.Set(sessionKeyUserEmail, email)
	sess.Set(sessionKeyUserRole, string(role))
	sess.Set(sessionKeyStartedAt, m.now().Unix())

	return sess.Save()
}

// Current returns the session's user, or ErrNoSession while Anonymous.
func (m *SessionManager) Current(c *fiber.Ctx) (*SessionUser, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not open session")
	}

	id, ok := sess.Get(sessionKeyUserID).(int64)
	if !ok {
		return nil, ErrNoSession
	}

	name, _ := sess.Get(sessionKeyUserName).(string)
	email, _ := sess.Get(sessionKeyUserEmail).(string)
	rawRole, _ := sess.Get(sessionKeyUserRole).(string)
	started, _ := sess.Get(sessionKeyStartedAt).(int64)

	role, ok := ParseRole(rawRole)
	if !ok {
		return nil, ErrNoSession
	}

	return &SessionUser{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		StartedAt: time.Unix(started, 0),
	}, nil
}

// UpdateCachedProfile overwrites the cached name and email after the store
// accepted a profile update. It never touches user_id or role, and it is an
// error to call it on an Anonymous session.
func (m *SessionManager) UpdateCachedProfile(c *fiber.Ctx, name, email string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not open session")
	}

	if _, ok := sess.Get(sessionKeyUserID).(int64); !ok {
		return ErrNoSession
	}

	sess.Set(sessionKeyUserName, name)
	sess.Set(sessionKeyUserEmail, email)

	return sess.Save()
}

// Destroy transitions to Anonymous and invalidates the session identifier
// so the old cookie cannot be replayed.
func (m *SessionManager) Destroy(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not open session")
	}
	return sess.Destroy()
}
