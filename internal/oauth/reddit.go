package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
	"github.com/johanforsgren/threadline/internal/provider/common"
)

const (
	DefaultAuthURL     = "https://www.reddit.com/api/v1/authorize.compact"
	DefaultTokenURL    = "https://www.reddit.com/api/v1/access_token"
	DefaultIdentityURL = "https://oauth.reddit.com/api/v1/me"

	defaultTimeout = 30 * time.Second
)

// Scopes must match the set registered for the client id or the exchange
// is rejected.
var Scopes = []string{
	"identity", "edit", "flair", "history", "modconfig", "modflair",
	"modlog", "modposts", "modwiki", "mysubreddits", "privatemessages",
	"read", "report", "save", "submit", "subscribe", "vote", "wikiedit",
	"wikiread",
}

// Error codes the token endpoint uses when a second factor is missing or
// wrong.
var secondFactorCodes = map[string]bool{
	"missing_totp_token": true,
	"incorrect_totp":     true,
}

// Reddit implements domain.OAuthProvider with the authorization code
// grant and permanent (refreshable) tokens.
type Reddit struct {
	authURL     string
	tokenURL    string
	identityURL string
	transport   http.RoundTripper
}

type Option func(*Reddit)

// WithEndpoints points the client at a different authorization server.
func WithEndpoints(authURL, tokenURL, identityURL string) Option {
	return func(r *Reddit) {
		r.authURL = authURL
		r.tokenURL = tokenURL
		r.identityURL = identityURL
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(r *Reddit) {
		r.transport = transport
	}
}

func NewReddit(opts ...Option) *Reddit {
	r := &Reddit{
		authURL:     DefaultAuthURL,
		tokenURL:    DefaultTokenURL,
		identityURL: DefaultIdentityURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reddit) config(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   r.authURL,
			TokenURL:  r.tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// withClient makes x/oauth2 send requests through the logging transport
// with the caller's user agent.
func (r *Reddit) withClient(ctx context.Context, agent string) context.Context {
	client := &http.Client{
		Transport: &common.UserAgentTransport{
			Agent:     agent,
			Transport: common.NewLoggingTransport(r.transport),
		},
		Timeout: defaultTimeout,
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

func (r *Reddit) AuthURL(clientID, redirectURI, state string) string {
	return r.config(clientID, "", redirectURI).AuthCodeURL(state,
		oauth2.SetAuthURLParam("duration", "permanent"),
		oauth2.SetAuthURLParam("scope", strings.Join(Scopes, ",")),
	)
}

func (r *Reddit) Exchange(ctx context.Context, req domain.ExchangeRequest) (*domain.OAuthTokens, error) {
	cfg := r.config(req.ClientID, req.ClientSecret, req.RedirectURI)

	tok, err := cfg.Exchange(r.withClient(ctx, req.Agent), req.Code)
	if err != nil {
		logger.LogError("OAUTH_EXCHANGE", req.ClientID, err)
		return nil, classify(err)
	}

	return &domain.OAuthTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}, nil
}

// Refresh trades a refresh token for a new access token. The refresh token
// is kept when the server does not rotate it.
func (r *Reddit) Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.OAuthTokens, error) {
	cfg := r.config(req.ClientID, req.ClientSecret, "")

	src := cfg.TokenSource(r.withClient(ctx, req.Agent), &oauth2.Token{RefreshToken: req.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		logger.LogError("OAUTH_REFRESH", req.ClientID, err)
		return nil, classify(err)
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = req.RefreshToken
	}
	return &domain.OAuthTokens{AccessToken: tok.AccessToken, RefreshToken: refresh}, nil
}

type identityResponse struct {
	Name string `json:"name"`
}

// Identity returns the username the tokens belong to.
func (r *Reddit) Identity(ctx context.Context, agent string, tokens *domain.OAuthTokens) (string, error) {
	ctx = r.withClient(ctx, agent)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tokens.AccessToken,
		TokenType:   "bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.identityURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &common.APIError{StatusCode: resp.StatusCode, Path: req.URL.Path}
	}

	var me identityResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", fmt.Errorf("failed to decode identity: %w", err)
	}
	if me.Name == "" {
		return "", fmt.Errorf("identity response has no name")
	}
	return me.Name, nil
}

func classify(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && secondFactorCodes[re.ErrorCode] {
		return fmt.Errorf("%w: %w", domain.ErrAuthExchange, domain.ErrNeedsSecondFactor)
	}
	return fmt.Errorf("%w: %w", domain.ErrAuthExchange, err)
}
