package google

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenStore struct {
	tokens map[string]string
	err    error
}

func (f *fakeTokenStore) GoogleToken(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.tokens[userID], nil
}

func newTestOAuth() *OAuth {
	return NewOAuth("client-id", "client-secret", "https://example.com/callback")
}

func TestClientFor_NoToken(t *testing.T) {
	connector := NewConnector(newTestOAuth(), &fakeTokenStore{tokens: map[string]string{}})

	_, err := connector.ClientFor(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClientFor_CorruptToken(t *testing.T) {
	connector := NewConnector(newTestOAuth(), &fakeTokenStore{
		tokens: map[string]string{"user-1": "{not json"},
	})

	_, err := connector.ClientFor(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClientFor_StoreError(t *testing.T) {
	connector := NewConnector(newTestOAuth(), &fakeTokenStore{err: errors.New("database locked")})

	_, err := connector.ClientFor(context.Background(), "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConnected)
}

func TestClientFor_StoredToken(t *testing.T) {
	connector := NewConnector(newTestOAuth(), &fakeTokenStore{
		tokens: map[string]string{"user-1": `{"access_token":"abc","token_type":"Bearer"}`},
	})

	client, err := connector.ClientFor(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestAuthURL(t *testing.T) {
	oauth := newTestOAuth()

	url := oauth.AuthURL("csrf-state")

	assert.Contains(t, url, "client-id")
	assert.Contains(t, url, "csrf-state")
	assert.Contains(t, url, "access_type=offline")
}
