package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CredentialCollection is every known account plus the active handle.
// Accounts are ordered most recently added first. A collection is never
// empty; "no accounts" is a nil *CredentialCollection.
type CredentialCollection struct {
	Accounts     []Credential
	ActiveHandle string
}

func (c *CredentialCollection) Find(handle string) (Credential, bool) {
	if c == nil {
		return nil, false
	}
	for _, account := range c.Accounts {
		if account.Handle() == handle {
			return account, true
		}
	}
	return nil, false
}

func (c *CredentialCollection) Contains(handle string) bool {
	_, ok := c.Find(handle)
	return ok
}

func (c *CredentialCollection) Handles() []string {
	if c == nil {
		return nil
	}
	handles := make([]string, len(c.Accounts))
	for i, account := range c.Accounts {
		handles[i] = account.Handle()
	}
	return handles
}

func (c *CredentialCollection) Clone() *CredentialCollection {
	if c == nil {
		return nil
	}
	accounts := make([]Credential, len(c.Accounts))
	copy(accounts, c.Accounts)
	return &CredentialCollection{Accounts: accounts, ActiveHandle: c.ActiveHandle}
}

type collectionJSON struct {
	Accounts     []json.RawMessage `json:"accounts"`
	ActiveHandle string            `json:"activeHandle"`
}

func (c CredentialCollection) MarshalJSON() ([]byte, error) {
	out := struct {
		Accounts     []credentialRecord `json:"accounts"`
		ActiveHandle string             `json:"activeHandle"`
	}{
		Accounts:     make([]credentialRecord, 0, len(c.Accounts)),
		ActiveHandle: c.ActiveHandle,
	}
	for _, account := range c.Accounts {
		r, err := toRecord(account)
		if err != nil {
			return nil, err
		}
		out.Accounts = append(out.Accounts, r)
	}
	return json.Marshal(out)
}

func (c *CredentialCollection) UnmarshalJSON(data []byte) error {
	var raw collectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	accounts := make([]Credential, 0, len(raw.Accounts))
	for i, entry := range raw.Accounts {
		var r credentialRecord
		if err := json.Unmarshal(entry, &r); err != nil {
			return fmt.Errorf("account %d: %w", i, err)
		}
		cred, err := r.credential()
		if err != nil {
			return fmt.Errorf("account %d: %w", i, err)
		}
		accounts = append(accounts, cred)
	}

	c.Accounts = accounts
	c.ActiveHandle = raw.ActiveHandle
	return nil
}

// Validate checks the collection invariants: at least one account and
// unique handles. An active handle that references no entry is allowed
// and means no active session.
func (c *CredentialCollection) Validate() error {
	if c == nil {
		return nil
	}
	if len(c.Accounts) == 0 {
		return errors.New("collection has no accounts")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for _, account := range c.Accounts {
		if seen[account.Handle()] {
			return fmt.Errorf("duplicate handle %q", account.Handle())
		}
		seen[account.Handle()] = true
	}
	return nil
}
