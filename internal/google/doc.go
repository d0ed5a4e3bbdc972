// Package google handles the Google OAuth2 side of calendar access:
// the consent URL, the authorization-code exchange, and turning a
// stored per-user token into an authenticated calendar client.
//
// Tokens are persisted per user by the store; this package only knows
// how to serialize and deserialize them. A user without a stored token
// is "not connected" and every calendar capability check reports
// ErrNotConnected for them.
package google
