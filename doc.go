// Package auth implements a token-based authentication and authorization
// core: a JWT codec, a persisted token store, and the lifecycle flows that
// tie them together (login, refresh rotation, password reset, email
// verification).
//
// Token lifecycle:
//   - Four token types exist: ACCESS, REFRESH, RESET_PASSWORD, VERIFY_EMAIL.
//     Access tokens are validated by signature alone and never persisted.
//     The other three get a store row and are single use: consuming flows
//     delete the row (refresh) or purge every row of that type for the user
//     (reset, verify).
//   - TokenService is the stateless codec; Auther owns persistence decisions
//     and collapses each flow's failures into a single flow-level error so
//     responses leak nothing about why a token was rejected.
//
// Authorization:
//   - Users carry a set of Roles; each role grants a fixed set of
//     Permissions, with admin implicitly holding all of them. The
//     RouteAuthenticator guard requires ACCESS tokens, resolves the subject
//     to a live user, and gates routes via RequirePermission.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther to
//     describe login, logout, refresh, reset, and verification events.
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking authentication.
package auth
