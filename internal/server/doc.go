// Package server exposes the chat, conversation, appointment, and
// Google Calendar connection endpoints over HTTP.
//
// The server is a thin shell: it authenticates the request, parses the
// body, and delegates to the agent loop or the store. Authentication
// itself is pluggable behind the Authenticator interface; token
// issuance is not this service's concern.
package server
