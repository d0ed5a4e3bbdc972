package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/calchat/calchat/internal/calendar"
)

// ErrNotConnected reports that a user has no usable Google Calendar
// authorization. Callers fall back to local-only behavior or surface
// a "not connected" observation.
var ErrNotConnected = errors.New("google calendar not connected")

// TokenStore retrieves the stored OAuth token JSON for a user. An
// empty string means the user never connected their calendar.
type TokenStore interface {
	GoogleToken(ctx context.Context, userID string) (string, error)
}

// Connector turns a user id into an authenticated calendar client,
// or ErrNotConnected when the user has no stored authorization.
type Connector struct {
	oauth  *OAuth
	tokens TokenStore
}

// NewConnector creates a Connector backed by the given OAuth
// configuration and token store.
func NewConnector(oauth *OAuth, tokens TokenStore) *Connector {
	return &Connector{oauth: oauth, tokens: tokens}
}

// ClientFor returns a calendar client for the user. It reports
// ErrNotConnected when no token is stored or the stored token cannot
// be deserialized.
func (c *Connector) ClientFor(ctx context.Context, userID string) (*calendar.Client, error) {
	tokenJSON, err := c.tokens.GoogleToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored token: %w", err)
	}
	if tokenJSON == "" {
		return nil, ErrNotConnected
	}

	ts, err := c.oauth.tokenSource(ctx, tokenJSON)
	if err != nil {
		return nil, ErrNotConnected
	}

	client, err := calendar.NewClient(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return client, nil
}
