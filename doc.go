// Package accounts implements a user-account service: registration with
// email confirmation, password authentication, bearer-token sessions, and
// scope-based authorization.
//
// Session model:
//   - Tokens are HS256 signed JWTs carrying the subject, an advisory scope
//     snapshot, and an expiry. Tokens are never revoked server side; the
//     SessionValidator re-reads the account row on every protected call so
//     scope changes and account disabling take effect immediately.
//   - Authorization is conjunctive: every required scope must be held by the
//     live account, otherwise the call fails with a forbidden error that is
//     distinct from the unauthenticated one.
//
// Account lifecycle:
//   - Lifecycle transitions (register, confirm email, request and finalize a
//     password reset) are message/handler commands that run inside a single
//     storage transaction. One-time tokens are consumed by gated UPDATE
//     statements so replays observe zero affected rows.
//   - Email delivery is a collaborator behind the Mailer interface. Delivery
//     failures are classified and logged but never roll back a committed
//     account transition.
package accounts
