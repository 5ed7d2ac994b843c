package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/storage"
)

func signedToken(t *testing.T, issuer, subject string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": issuer,
		"sub": subject,
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

type fakeOAuth struct {
	tokens      *domain.OAuthTokens
	exchangeErr error
	identity    string
	identityErr error
	refreshed   *domain.OAuthTokens

	exchanges []domain.ExchangeRequest
	refreshes []domain.RefreshRequest
}

func (f *fakeOAuth) AuthURL(clientID, redirectURI, state string) string {
	return "https://auth.example/authorize?client_id=" + clientID + "&state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, req domain.ExchangeRequest) (*domain.OAuthTokens, error) {
	f.exchanges = append(f.exchanges, req)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.tokens, nil
}

func (f *fakeOAuth) Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.OAuthTokens, error) {
	f.refreshes = append(f.refreshes, req)
	return f.refreshed, nil
}

func (f *fakeOAuth) Identity(ctx context.Context, agent string, tokens *domain.OAuthTokens) (string, error) {
	return f.identity, f.identityErr
}

type siteCall struct {
	endpoint string
	token    string
}

type fakeSite struct {
	endpoint string
	parent   *fakeClients
}

func (f *fakeSite) Endpoint() string { return f.endpoint }

func (f *fakeSite) GetSite(ctx context.Context, token string) (*domain.Site, error) {
	f.parent.record(f.endpoint, token)
	if f.parent.siteErr != nil {
		return nil, f.parent.siteErr
	}
	return f.parent.site, nil
}

func (f *fakeSite) Login(ctx context.Context, usernameOrEmail, password, totp string) (string, error) {
	f.parent.record(f.endpoint, "")
	return f.parent.loginToken, f.parent.loginErr
}

func (f *fakeSite) ListInbox(ctx context.Context, token string, opts domain.InboxOptions) ([]domain.InboxItem, error) {
	f.parent.record(f.endpoint, token)
	f.parent.inboxOpts = opts
	return f.parent.inbox, nil
}

func (f *fakeSite) GetPersonDetails(ctx context.Context, token, username string) (*domain.PersonDetails, error) {
	f.parent.record(f.endpoint, token)
	return &domain.PersonDetails{Person: domain.Person{Name: username}}, nil
}

type fakeClients struct {
	mu         sync.Mutex
	calls      []siteCall
	site       *domain.Site
	siteErr    error
	loginToken string
	loginErr   error
	inbox      []domain.InboxItem
	inboxOpts  domain.InboxOptions
}

func (f *fakeClients) ClientFor(endpoint string) (domain.SiteClient, error) {
	return &fakeSite{endpoint: endpoint, parent: f}, nil
}

func (f *fakeClients) record(endpoint, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, siteCall{endpoint: endpoint, token: token})
}

type fakeFanOut struct {
	resets int
	err    error
}

func (f *fakeFanOut) ResetAll(ctx context.Context) error {
	f.resets++
	return f.err
}

type harness struct {
	kv      *storage.MemoryStore
	store   *storage.CredentialStore
	oauth   *fakeOAuth
	clients *fakeClients
	fanOut  *fakeFanOut
}

func newHarness(storeOpts ...storage.Option) *harness {
	kv := storage.NewMemoryStore()
	return &harness{
		kv:      kv,
		store:   storage.NewCredentialStore(kv, storeOpts...),
		oauth:   &fakeOAuth{},
		clients: &fakeClients{},
		fanOut:  &fakeFanOut{},
	}
}

func (h *harness) service(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := New(Deps{
		KV:      h.kv,
		Store:   h.store,
		OAuth:   h.oauth,
		Clients: h.clients,
		FanOut:  h.fanOut,
	}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// seed stores accounts directly, bypassing the service.
func (h *harness) seed(t *testing.T, creds ...domain.Credential) {
	t.Helper()
	for _, c := range creds {
		if err := h.store.AddAccount(c); err != nil {
			t.Fatalf("seed %s: %v", c.Handle(), err)
		}
	}
}
