package storage

import (
	"testing"

	"github.com/johanforsgren/threadline/internal/domain"
)

func TestMigrateLegacyStore(t *testing.T) {
	kv := NewMemoryStore()
	kv.Set("jwt", "old.single.token")
	kv.Set(KeyCredentials, `{
		"accounts": [
			{"username": "spez", "clientId": "c", "clientSecret": "s", "refreshToken": "r", "accessToken": "a"},
			{"jwt": "h.p.s", "handle": "alice@lemmy.world"},
			{"jwt": "dup", "handle": "alice@lemmy.world"},
			{"nothing": true}
		],
		"activeAccount": "alice@lemmy.world"
	}`)

	version, err := Migrate(kv)
	if err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("Expected version %d, got %d", SchemaVersion, version)
	}

	if _, ok, _ := kv.Get("jwt"); ok {
		t.Error("Expected legacy jwt key to be removed")
	}

	c, err := NewCredentialStore(kv).Hydrate()
	if err != nil {
		t.Fatalf("Migrated credentials do not hydrate: %v", err)
	}
	if !equalHandles(handles(c), []string{"spez", "alice@lemmy.world"}) {
		t.Errorf("Expected [spez alice@lemmy.world], got %v", handles(c))
	}
	if c.ActiveHandle != "alice@lemmy.world" {
		t.Errorf("Expected alice active, got %s", c.ActiveHandle)
	}
	if c.Accounts[1].Kind() != domain.CredentialFederated {
		t.Errorf("Expected federated credential, got %s", c.Accounts[1].Kind())
	}
}

func TestMigrateRunsOnce(t *testing.T) {
	kv := NewMemoryStore()
	if _, err := Migrate(kv); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}

	// A key written after migration must survive a second run.
	kv.Set("jwt", "unrelated")
	if _, err := Migrate(kv); err != nil {
		t.Fatalf("Second migration failed: %v", err)
	}
	if _, ok, _ := kv.Get("jwt"); !ok {
		t.Error("Completed migration steps must not run again")
	}
}

func TestMigrateDropsUnparseableCollection(t *testing.T) {
	kv := NewMemoryStore()
	kv.Set(KeyCredentials, "garbage")

	if _, err := Migrate(kv); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	if _, ok, _ := kv.Get(KeyCredentials); ok {
		t.Error("Expected unparseable collection to be dropped")
	}
}

func TestMigrateFallsBackToFirstAccount(t *testing.T) {
	kv := NewMemoryStore()
	kv.Set(KeyCredentials, `{"accounts":[{"jwt":"x","handle":"a"},{"jwt":"y","handle":"b"}],"activeHandle":"gone"}`)

	if _, err := Migrate(kv); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	c, err := NewCredentialStore(kv).Hydrate()
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if c.ActiveHandle != "a" {
		t.Errorf("Expected a active, got %s", c.ActiveHandle)
	}
}
