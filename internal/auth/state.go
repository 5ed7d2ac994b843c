package auth

import (
	"sync"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/token"
)

// State is the session as the rest of the program sees it. It is built by
// Service and handed out as a snapshot; mutating a snapshot has no effect
// on the service.
type State struct {
	Accounts          *domain.CredentialCollection
	Site              *domain.Site
	ConnectedInstance string

	decoder *decoder
}

// ActiveAccount is nil when there is no collection or the active handle
// matches nothing.
func (s State) ActiveAccount() domain.Credential {
	account, _ := s.Accounts.Find(s.activeHandle())
	return account
}

func (s State) activeHandle() string {
	if s.Accounts == nil {
		return ""
	}
	return s.Accounts.ActiveHandle
}

func (s State) ActiveToken() string {
	account := s.ActiveAccount()
	if account == nil {
		return ""
	}
	return account.Token()
}

// ActiveHandle is the handle of the active account, or "" without one.
func (s State) ActiveHandle() string {
	account := s.ActiveAccount()
	if account == nil {
		return ""
	}
	return account.Handle()
}

// Issuer is the "iss" claim of the active token. Tokens that do not decode
// have no issuer.
func (s State) Issuer() string {
	tok := s.ActiveToken()
	if tok == "" {
		return ""
	}
	payload, err := s.decoder.decode(tok)
	if err != nil {
		return ""
	}
	return payload.Issuer
}

// ResolvedEndpoint is where requests carrying the active token may go: the
// token's issuer when known, otherwise the connected instance.
func (s State) ResolvedEndpoint() string {
	if iss := s.Issuer(); iss != "" {
		return iss
	}
	return s.ConnectedInstance
}

// SiteToken is the active token if it may be attached to requests for
// ResolvedEndpoint. OAuth tokens belong to a different service and are
// never sent to an instance.
func (s State) SiteToken() string {
	account := s.ActiveAccount()
	if account == nil || account.Kind() != domain.CredentialFederated {
		return ""
	}
	return account.Token()
}

func (s State) clone() State {
	out := s
	out.Accounts = s.Accounts.Clone()
	return out
}

// decoder remembers the last token it decoded.
type decoder struct {
	mu      sync.Mutex
	token   string
	payload *token.Payload
	err     error
	decodes int
}

func (d *decoder) decode(tok string) (*token.Payload, error) {
	if d == nil {
		return token.Decode(tok)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.decodes > 0 && d.token == tok {
		return d.payload, d.err
	}
	d.token = tok
	d.payload, d.err = token.Decode(tok)
	d.decodes++
	return d.payload, d.err
}
