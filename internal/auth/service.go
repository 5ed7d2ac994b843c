package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/johanforsgren/threadline/internal/content"
	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
	"github.com/johanforsgren/threadline/internal/provider/common"
	"github.com/johanforsgren/threadline/internal/storage"
	"github.com/johanforsgren/threadline/internal/token"
)

type Phase int

const (
	Anonymous Phase = iota
	AwaitingAuthorization
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case AwaitingAuthorization:
		return "awaiting authorization"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// ClientResolver hands out the site client for an endpoint.
type ClientResolver interface {
	ClientFor(endpoint string) (domain.SiteClient, error)
}

// FanOut invalidates every content domain.
type FanOut interface {
	ResetAll(ctx context.Context) error
}

type Deps struct {
	KV      domain.KeyValueStore
	Store   *storage.CredentialStore
	OAuth   domain.OAuthProvider
	Clients ClientResolver
	FanOut  FanOut
	// Content receives fetched items. Optional.
	Content *content.Store
}

type Option func(*Service)

// WithClearPendingOnSuccess removes the pending login entries once
// CompleteLogin has stored the account. By default they are left in place.
func WithClearPendingOnSuccess(clear bool) Option {
	return func(s *Service) {
		s.clearPending = clear
	}
}

// WithConnectedInstance sets the endpoint used when the active token has
// no issuer.
func WithConnectedInstance(instance string) Option {
	return func(s *Service) {
		s.state.ConnectedInstance = instance
	}
}

// WithUserAgent sets the User-Agent used for token refreshes when no
// pending login recorded one.
func WithUserAgent(agent string) Option {
	return func(s *Service) {
		s.userAgent = agent
	}
}

// Service owns the session state and is the only thing that changes it.
// Mutations are serialised; readers get snapshots.
type Service struct {
	mu    sync.Mutex
	state State

	kv      domain.KeyValueStore
	store   *storage.CredentialStore
	oauth   domain.OAuthProvider
	clients ClientResolver
	fanOut  FanOut
	content *content.Store

	clearPending bool
	userAgent    string
	newState     func() string
}

type LoginRequest struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Agent        string
}

type FederatedLogin struct {
	Instance string
	Username string
	Password string
	TOTP     string
}

// New hydrates the credential store and builds the session state from it.
// A corrupt stored collection is logged and treated as no accounts.
func New(deps Deps, opts ...Option) (*Service, error) {
	s := &Service{
		kv:       deps.KV,
		store:    deps.Store,
		oauth:    deps.OAuth,
		clients:  deps.Clients,
		fanOut:   deps.FanOut,
		content:  deps.Content,
		newState: uuid.NewString,
		state:    State{decoder: &decoder{}},
	}
	for _, opt := range opts {
		opt(s)
	}

	collection, err := s.store.Hydrate()
	if err != nil && !errors.Is(err, domain.ErrStorageCorruption) {
		return nil, err
	}
	if err != nil {
		logger.Log("Ignoring corrupt stored credentials; next login replaces them")
	}
	s.state.Accounts = collection

	if iss := s.state.Issuer(); iss != "" {
		s.state.ConnectedInstance = iss
	}
	return s, nil
}

// State returns a snapshot of the session.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Phase reports where the login state machine is. A login is awaiting
// authorization from BeginLogin until its tokens have been stored.
func (s *Service) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, complete, err := readPending(s.kv)
	if err == nil && complete && pending.State != "" && pending.AccessToken == "" {
		return AwaitingAuthorization
	}
	if s.state.ActiveAccount() != nil {
		return Authenticated
	}
	return Anonymous
}

// BeginLogin records the client details for the authorization round trip
// and returns the URL the user must open. A login already pending is
// replaced and can no longer be completed.
func (s *Service) BeginLogin(ctx context.Context, req LoginRequest) (string, error) {
	if missing := missingFields(map[string]string{
		"client id":     req.ClientID,
		"client secret": req.ClientSecret,
		"redirect URI":  req.RedirectURI,
		"user agent":    req.Agent,
	}); len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.newState()
	if err := writePending(s.kv, PendingLogin{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		RedirectURI:  req.RedirectURI,
		Agent:        req.Agent,
		State:        state,
	}); err != nil {
		logger.LogError("BEGIN_LOGIN", req.ClientID, err)
		return "", err
	}

	logger.Log("Login started for client %s", req.ClientID)
	return s.oauth.AuthURL(req.ClientID, req.RedirectURI, state), nil
}

func missingFields(fields map[string]string) []string {
	var missing []string
	for _, name := range []string{"client id", "client secret", "redirect URI", "user agent", "instance", "username", "password"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// CompleteLogin exchanges the authorization code from the redirect for
// tokens and adds the resulting account. state is checked against the
// pending login when non-empty. On failure nothing changes.
func (s *Service) CompleteLogin(ctx context.Context, code, state string) (domain.Credential, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: authorization code", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, complete, err := readPending(s.kv)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, fmt.Errorf("%w: no login in progress", domain.ErrValidation)
	}
	if state != "" && pending.State != "" && state != pending.State {
		logger.LogError("COMPLETE_LOGIN", pending.ClientID, errors.New("state mismatch"))
		return nil, fmt.Errorf("%w: state does not match the pending login", domain.ErrAuthExchange)
	}

	tokens, err := s.oauth.Exchange(ctx, domain.ExchangeRequest{
		ClientID:     pending.ClientID,
		ClientSecret: pending.ClientSecret,
		RedirectURI:  pending.RedirectURI,
		Agent:        pending.Agent,
		Code:         code,
	})
	if err != nil {
		return nil, asExchangeError(err)
	}

	username, err := s.oauth.Identity(ctx, pending.Agent, tokens)
	if err != nil {
		logger.LogError("COMPLETE_LOGIN", pending.ClientID, err)
		return nil, asExchangeError(err)
	}

	cred := domain.OAuthCredential{
		Username:     username,
		ClientID:     pending.ClientID,
		ClientSecret: pending.ClientSecret,
		RefreshToken: tokens.RefreshToken,
		AccessToken:  tokens.AccessToken,
	}
	if err := s.addAccount(ctx, cred); err != nil {
		return nil, err
	}

	// The account is stored at this point; a failed token write only
	// affects the pending entries.
	if err := writeTokens(s.kv, tokens); err != nil {
		logger.LogError("COMPLETE_LOGIN", username, err)
	}

	if s.clearPending {
		if err := clearPending(s.kv); err != nil {
			logger.LogError("CLEAR_PENDING", username, err)
		}
	}

	logger.Log("Logged in as %s", username)
	return cred, nil
}

func asExchangeError(err error) error {
	if errors.Is(err, domain.ErrAuthExchange) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrAuthExchange, err)
}

// LoginFederated signs in to an instance with a password and adds the
// account. The returned token's issuer becomes the connected instance.
func (s *Service) LoginFederated(ctx context.Context, req FederatedLogin) (domain.Credential, error) {
	if missing := missingFields(map[string]string{
		"instance": req.Instance,
		"username": req.Username,
		"password": req.Password,
	}); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}

	client, err := s.clients.ClientFor(req.Instance)
	if err != nil {
		return nil, err
	}

	jwt, err := client.Login(ctx, req.Username, req.Password, req.TOTP)
	if err != nil {
		return nil, asExchangeError(err)
	}

	payload, err := token.Decode(jwt)
	if err != nil {
		logger.LogError("LOGIN_FEDERATED", req.Username, err)
		return nil, asExchangeError(err)
	}
	issuer := payload.Issuer
	if issuer == "" {
		issuer = common.InstanceHost(req.Instance)
	}

	// the token only ever goes to its issuer
	site, err := s.siteFor(ctx, issuer, jwt)
	if err != nil {
		return nil, asExchangeError(err)
	}

	handle := common.FormatHandle(req.Username, issuer)
	if site.MyUser != nil {
		handle = common.RemoteHandle(*site.MyUser)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cred := domain.FederatedCredential{UserHandle: handle, JWT: jwt}
	if err := s.addAccount(ctx, cred); err != nil {
		return nil, err
	}
	s.state.ConnectedInstance = issuer
	s.state.Site = site
	if s.content != nil {
		s.content.PutSite(site)
	}

	logger.Log("Logged in as %s", handle)
	return cred, nil
}

func (s *Service) siteFor(ctx context.Context, endpoint, tok string) (*domain.Site, error) {
	client, err := s.clients.ClientFor(endpoint)
	if err != nil {
		return nil, err
	}
	return client.GetSite(ctx, tok)
}

// addAccount stores cred as the active account. Content fetched for a
// different previous identity is dropped first. Callers hold s.mu.
func (s *Service) addAccount(ctx context.Context, cred domain.Credential) error {
	previous := s.state.ActiveHandle()
	if previous != "" && previous != cred.Handle() {
		if err := s.fanOut.ResetAll(ctx); err != nil {
			return err
		}
		s.state.Site = nil
	}

	if err := s.store.AddAccount(cred); err != nil {
		return err
	}
	s.state.Accounts = s.store.Collection()
	return nil
}

// SwitchActive makes handle the active account after dropping content
// cached for the current one. Unless the store is lenient an unknown
// handle is rejected before anything is reset.
func (s *Service) SwitchActive(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Strict() && s.state.Accounts != nil && !s.state.Accounts.Contains(handle) {
		logger.LogError("SWITCH_ACCOUNT", handle, domain.ErrAccountNotFound)
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, handle)
	}

	if err := s.fanOut.ResetAll(ctx); err != nil {
		return err
	}

	if err := s.store.SetActive(handle); err != nil {
		return err
	}
	s.state.Accounts = s.store.Collection()
	s.state.Site = nil

	if iss := s.state.Issuer(); iss != "" {
		s.state.ConnectedInstance = iss
	}

	logger.Log("Switched to %s", handle)
	return nil
}

// RemoveAccount forgets handle. Removing the active account drops cached
// content and activates the first remaining account.
func (s *Service) RemoveAccount(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Strict() && !s.state.Accounts.Contains(handle) {
		logger.LogError("REMOVE_ACCOUNT", handle, domain.ErrAccountNotFound)
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, handle)
	}

	wasActive := s.state.Accounts != nil && s.state.Accounts.ActiveHandle == handle
	if wasActive {
		if err := s.fanOut.ResetAll(ctx); err != nil {
			return err
		}
	}

	if _, err := s.store.RemoveAccount(handle); err != nil {
		return err
	}
	s.state.Accounts = s.store.Collection()

	if wasActive {
		s.state.Site = nil
		if iss := s.state.Issuer(); iss != "" {
			s.state.ConnectedInstance = iss
		}
	}
	return nil
}

// LogoutEverything forgets every account and drops all cached content.
// The connected instance is kept so anonymous browsing continues there.
func (s *Service) LogoutEverything(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clearErr := s.store.Clear()
	s.state.Accounts = s.store.Collection()
	s.state.Site = nil

	fanErr := s.fanOut.ResetAll(ctx)

	if err := errors.Join(clearErr, fanErr); err != nil {
		logger.LogError("LOGOUT", "all accounts", err)
		return err
	}
	logger.Log("Logged out of every account")
	return nil
}

func (s *Service) UpdateSite(site *domain.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Site = site
}

func (s *Service) UpdateConnectedInstance(instance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConnectedInstance = instance
}

// RefreshSite fetches site metadata from the resolved endpoint, signed in
// when the active account belongs to an instance.
func (s *Service) RefreshSite(ctx context.Context) (*domain.Site, error) {
	snapshot := s.State()
	endpoint := snapshot.ResolvedEndpoint()
	if endpoint == "" {
		return nil, domain.ErrNoSession
	}

	site, err := s.siteFor(ctx, endpoint, snapshot.SiteToken())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// skip the update if the account changed while fetching
	if s.state.ActiveHandle() != snapshot.ActiveHandle() {
		return site, nil
	}
	s.state.Site = site
	if s.content != nil {
		s.content.PutSite(site)
	}
	return site, nil
}

// Inbox lists the active account's replies, mentions and messages.
func (s *Service) Inbox(ctx context.Context, unreadOnly bool) ([]domain.InboxItem, error) {
	snapshot := s.State()
	tok := snapshot.SiteToken()
	if tok == "" {
		return nil, domain.ErrNoSession
	}

	client, err := s.clients.ClientFor(snapshot.ResolvedEndpoint())
	if err != nil {
		return nil, err
	}

	opts := domain.InboxOptions{UnreadOnly: unreadOnly}
	if snapshot.Site != nil && snapshot.Site.MyUser != nil {
		opts.ExcludeCreatorID = snapshot.Site.MyUser.ID
	}
	items, err := client.ListInbox(ctx, tok, opts)
	if err != nil {
		return nil, err
	}
	if s.content != nil {
		s.content.PutInbox(items)
	}
	return items, nil
}

// Person fetches a profile from the resolved endpoint.
func (s *Service) Person(ctx context.Context, username string) (*domain.PersonDetails, error) {
	snapshot := s.State()
	endpoint := snapshot.ResolvedEndpoint()
	if endpoint == "" {
		return nil, domain.ErrNoSession
	}

	client, err := s.clients.ClientFor(endpoint)
	if err != nil {
		return nil, err
	}
	details, err := client.GetPersonDetails(ctx, snapshot.SiteToken(), username)
	if err != nil {
		return nil, err
	}
	if s.content != nil {
		s.content.PutPersonDetails(username, details)
	}
	return details, nil
}

// RefreshActive renews the access token of the active OAuth account.
func (s *Service) RefreshActive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.state.ActiveAccount().(domain.OAuthCredential)
	if !ok {
		return fmt.Errorf("%w: active account has no refresh token", domain.ErrNoSession)
	}

	agent, _, err := s.kv.Get(storage.KeyUserAgent)
	if err != nil {
		return err
	}
	if agent == "" {
		agent = s.userAgent
	}

	tokens, err := s.oauth.Refresh(ctx, domain.RefreshRequest{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Agent:        agent,
		RefreshToken: cred.RefreshToken,
	})
	if err != nil {
		return asExchangeError(err)
	}

	cred.RefreshToken = tokens.RefreshToken
	if err := s.store.UpdateAccount(cred.WithToken(tokens.AccessToken)); err != nil {
		return err
	}
	s.state.Accounts = s.store.Collection()

	logger.Log("Refreshed token for %s", cred.Username)
	return nil
}
