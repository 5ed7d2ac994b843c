package domain

import "context"

// SiteClient talks to one federated instance. Implementations are bound
// to a single endpoint; the token is supplied per call.
type SiteClient interface {
	Endpoint() string

	GetSite(ctx context.Context, token string) (*Site, error)

	Login(ctx context.Context, usernameOrEmail, password, totp string) (string, error)

	ListInbox(ctx context.Context, token string, opts InboxOptions) ([]InboxItem, error)

	GetPersonDetails(ctx context.Context, token, username string) (*PersonDetails, error)
}

// OAuthProvider is the third-party authorization server.
type OAuthProvider interface {
	AuthURL(clientID, redirectURI, state string) string

	Exchange(ctx context.Context, req ExchangeRequest) (*OAuthTokens, error)

	Refresh(ctx context.Context, req RefreshRequest) (*OAuthTokens, error)

	Identity(ctx context.Context, agent string, tokens *OAuthTokens) (string, error)
}

type InboxOptions struct {
	UnreadOnly bool
	Page       int
	Limit      int
	// ExcludeCreatorID drops private messages sent by this person id,
	// normally the viewer's own.
	ExcludeCreatorID int
}

type ExchangeRequest struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Agent        string
	Code         string
}

type RefreshRequest struct {
	ClientID     string
	ClientSecret string
	Agent        string
	RefreshToken string
}

// Resetter discards every cached item of one content domain.
type Resetter interface {
	Name() string

	Reset(ctx context.Context) error
}
