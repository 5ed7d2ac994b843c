package domain

import (
	"encoding/json"
	"fmt"
)

type CredentialKind string

const (
	CredentialFederated CredentialKind = "federated"
	CredentialOAuth     CredentialKind = "oauth"
)

// Credential is one authenticated identity. It is either a
// FederatedCredential or an OAuthCredential; callers switch on the
// concrete type.
type Credential interface {
	Kind() CredentialKind
	Handle() string
	Token() string
	// WithToken returns a copy carrying a refreshed token. Credentials are
	// otherwise immutable.
	WithToken(token string) Credential
}

// FederatedCredential is a session token issued by a federated instance.
type FederatedCredential struct {
	UserHandle string
	JWT        string
}

func (c FederatedCredential) Kind() CredentialKind { return CredentialFederated }
func (c FederatedCredential) Handle() string       { return c.UserHandle }
func (c FederatedCredential) Token() string        { return c.JWT }

func (c FederatedCredential) WithToken(token string) Credential {
	c.JWT = token
	return c
}

// OAuthCredential is an identity obtained through the third-party
// authorization code flow.
type OAuthCredential struct {
	Username     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
}

func (c OAuthCredential) Kind() CredentialKind { return CredentialOAuth }
func (c OAuthCredential) Handle() string       { return c.Username }
func (c OAuthCredential) Token() string        { return c.AccessToken }

func (c OAuthCredential) WithToken(token string) Credential {
	c.AccessToken = token
	return c
}

type credentialRecord struct {
	Kind         CredentialKind `json:"kind"`
	Handle       string         `json:"handle,omitempty"`
	JWT          string         `json:"jwt,omitempty"`
	Username     string         `json:"username,omitempty"`
	ClientID     string         `json:"clientId,omitempty"`
	ClientSecret string         `json:"clientSecret,omitempty"`
	RefreshToken string         `json:"refreshToken,omitempty"`
	AccessToken  string         `json:"accessToken,omitempty"`
}

func toRecord(c Credential) (credentialRecord, error) {
	switch c := c.(type) {
	case FederatedCredential:
		return credentialRecord{Kind: CredentialFederated, Handle: c.UserHandle, JWT: c.JWT}, nil
	case OAuthCredential:
		return credentialRecord{
			Kind:         CredentialOAuth,
			Username:     c.Username,
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RefreshToken: c.RefreshToken,
			AccessToken:  c.AccessToken,
		}, nil
	default:
		return credentialRecord{}, fmt.Errorf("unsupported credential type %T", c)
	}
}

func (r credentialRecord) credential() (Credential, error) {
	switch r.Kind {
	case CredentialFederated:
		if r.Handle == "" {
			return nil, fmt.Errorf("federated credential without handle")
		}
		return FederatedCredential{UserHandle: r.Handle, JWT: r.JWT}, nil
	case CredentialOAuth:
		if r.Username == "" {
			return nil, fmt.Errorf("oauth credential without username")
		}
		return OAuthCredential{
			Username:     r.Username,
			ClientID:     r.ClientID,
			ClientSecret: r.ClientSecret,
			RefreshToken: r.RefreshToken,
			AccessToken:  r.AccessToken,
		}, nil
	default:
		return nil, fmt.Errorf("unknown credential kind %q", r.Kind)
	}
}

// LegacyCredential decodes an untagged account entry written before
// credentials carried a kind. Entries with a jwt are federated, entries
// with OAuth tokens or a username are OAuth.
func LegacyCredential(raw json.RawMessage) (Credential, error) {
	var r credentialRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	if r.Kind == "" {
		switch {
		case r.JWT != "":
			r.Kind = CredentialFederated
		case r.AccessToken != "" || r.RefreshToken != "" || r.Username != "":
			r.Kind = CredentialOAuth
		}
	}
	return r.credential()
}
