package auth

import (
	"fmt"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/storage"
)

// PendingLogin is what BeginLogin leaves behind for CompleteLogin. Only one
// login can be pending; a new BeginLogin replaces it.
type PendingLogin struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Agent        string
	State        string
	RefreshToken string
	AccessToken  string
}

var pendingKeys = []string{
	storage.KeyClientID,
	storage.KeyClientSecret,
	storage.KeyRedirectURI,
	storage.KeyUserAgent,
	storage.KeyOAuthState,
	storage.KeyRefreshToken,
	storage.KeyAccessToken,
}

func readPending(kv domain.KeyValueStore) (*PendingLogin, bool, error) {
	values := make(map[string]string, len(pendingKeys))
	for _, key := range pendingKeys {
		v, _, err := kv.Get(key)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
		}
		values[key] = v
	}

	p := &PendingLogin{
		ClientID:     values[storage.KeyClientID],
		ClientSecret: values[storage.KeyClientSecret],
		RedirectURI:  values[storage.KeyRedirectURI],
		Agent:        values[storage.KeyUserAgent],
		State:        values[storage.KeyOAuthState],
		RefreshToken: values[storage.KeyRefreshToken],
		AccessToken:  values[storage.KeyAccessToken],
	}
	complete := p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != "" && p.Agent != ""
	return p, complete, nil
}

// writePending stores the submitted client details and drops tokens left
// over from an earlier login.
func writePending(kv domain.KeyValueStore, p PendingLogin) error {
	writes := []struct{ key, value string }{
		{storage.KeyClientID, p.ClientID},
		{storage.KeyClientSecret, p.ClientSecret},
		{storage.KeyRedirectURI, p.RedirectURI},
		{storage.KeyUserAgent, p.Agent},
		{storage.KeyOAuthState, p.State},
	}
	for _, w := range writes {
		if err := kv.Set(w.key, w.value); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.key, err)
		}
	}
	for _, key := range []string{storage.KeyRefreshToken, storage.KeyAccessToken} {
		if err := kv.Remove(key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

func writeTokens(kv domain.KeyValueStore, tokens *domain.OAuthTokens) error {
	if err := kv.Set(storage.KeyRefreshToken, tokens.RefreshToken); err != nil {
		return fmt.Errorf("failed to write %s: %w", storage.KeyRefreshToken, err)
	}
	if err := kv.Set(storage.KeyAccessToken, tokens.AccessToken); err != nil {
		return fmt.Errorf("failed to write %s: %w", storage.KeyAccessToken, err)
	}
	return nil
}

func clearPending(kv domain.KeyValueStore) error {
	for _, key := range pendingKeys {
		if err := kv.Remove(key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}
