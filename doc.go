// Package auth implements the authentication and session-token core of the
// CastLink casting marketplace backend: credential verification, signed
// access/refresh token issuance, refresh rotation with server-side revocation,
// logout, password reset, and account deactivation.
//
// Durable state lives in two external stores: a relational credential store
// (bun over Postgres) and a key-value refresh-token store with per-record TTL
// (Redis). The SessionManager orchestrates both through explicit interfaces;
// the HTTP surface is a Fiber controller under /api/auth.
package auth
