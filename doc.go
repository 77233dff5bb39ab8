// Package portal implements a server-rendered user account system: account
// registration, login against bcrypt-hashed credentials, and a session-backed
// dashboard with profile and password editing.
//
// Roles:
//   - Accounts carry one of three roles fixed at creation time. Admins and
//     regular users own persisted records and may edit their profile; guests
//     hold an ephemeral session with fixed placeholder identity and no record.
//
// Sessions:
//   - SessionManager owns the server-side session lifecycle over an opaque
//     cookie identifier. Handlers read the acting user through the route
//     guard, never from raw session fields, so client input cannot reach
//     role state without passing ParseRole.
//
// Storage:
//   - Users is the credential store interface backed by Bun. The unique
//     constraint on users.email is the authority on duplicates; flow-level
//     pre-checks only improve error messages.
package portal
