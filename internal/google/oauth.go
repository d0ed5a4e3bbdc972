package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarv3 "google.golang.org/api/calendar/v3"
)

// OAuth wraps the OAuth2 configuration for the Google Calendar scope.
type OAuth struct {
	conf *oauth2.Config
}

// NewOAuth builds the OAuth2 configuration. Client credentials come
// from the environment (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET,
// GOOGLE_REDIRECT_URL) unless overridden.
func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if redirectURL == "" {
		redirectURL = os.Getenv("GOOGLE_REDIRECT_URL")
	}

	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes: []string{
				calendarv3.CalendarScope, // full calendar access (events read/write)
			},
		},
	}
}

// AuthURL returns the consent URL the user visits to authorize
// calendar access. The caller supplies the CSRF state.
func (o *OAuth) AuthURL(state string) string {
	return o.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and returns the
// token serialized as JSON, ready to be stored on the user row.
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	token, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange auth code: %w", err)
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("failed to serialize token: %w", err)
	}
	return string(raw), nil
}

// tokenSource deserializes a stored token JSON and wraps it in a
// refreshing token source.
func (o *OAuth) tokenSource(ctx context.Context, tokenJSON string) (oauth2.TokenSource, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("invalid stored token: %w", err)
	}
	return o.conf.TokenSource(ctx, &token), nil
}
