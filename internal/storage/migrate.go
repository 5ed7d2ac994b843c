package storage

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
)

// SchemaVersion is the layout written by this build.
const SchemaVersion = 2

type migration struct {
	version int
	name    string
	apply   func(kv domain.KeyValueStore) error
}

var migrations = []migration{
	{version: 1, name: "drop single-account token", apply: dropLegacyJWT},
	{version: 2, name: "tag credential kinds", apply: tagCredentialKinds},
}

// Migrate brings kv up to SchemaVersion, running each pending step once
// and recording the version after each step. It returns the version the
// store is at afterwards.
func Migrate(kv domain.KeyValueStore) (int, error) {
	current, err := schemaVersion(kv)
	if err != nil {
		return 0, err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		logger.Log("Migrating storage to v%d: %s", m.version, m.name)
		if err := m.apply(kv); err != nil {
			logger.LogError("MIGRATE", m.name, err)
			return current, fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := kv.Set(KeySchemaVersion, strconv.Itoa(m.version)); err != nil {
			return current, fmt.Errorf("failed to record schema version %d: %w", m.version, err)
		}
		current = m.version
	}

	return current, nil
}

func schemaVersion(kv domain.KeyValueStore) (int, error) {
	raw, ok, err := kv.Get(KeySchemaVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !ok {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.LogError("SCHEMA_VERSION", raw, err)
		return 0, nil
	}
	return v, nil
}

func dropLegacyJWT(kv domain.KeyValueStore) error {
	return kv.Remove(keyLegacyJWT)
}

type legacyCollection struct {
	Accounts      []json.RawMessage `json:"accounts"`
	ActiveHandle  string            `json:"activeHandle"`
	ActiveAccount string            `json:"activeAccount"`
}

func tagCredentialKinds(kv domain.KeyValueStore) error {
	raw, ok, err := kv.Get(KeyCredentials)
	if err != nil || !ok {
		return err
	}

	var legacy legacyCollection
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		logger.LogError("MIGRATE_CREDENTIALS", KeyCredentials, err)
		return kv.Remove(KeyCredentials)
	}

	collection := &domain.CredentialCollection{}
	seen := map[string]bool{}
	for _, entry := range legacy.Accounts {
		cred, err := domain.LegacyCredential(entry)
		if err != nil {
			logger.LogError("MIGRATE_CREDENTIALS", string(entry), err)
			continue
		}
		if seen[cred.Handle()] {
			continue
		}
		seen[cred.Handle()] = true
		collection.Accounts = append(collection.Accounts, cred)
	}

	if len(collection.Accounts) == 0 {
		return kv.Remove(KeyCredentials)
	}

	active := legacy.ActiveHandle
	if active == "" {
		active = legacy.ActiveAccount
	}
	if !seen[active] {
		active = collection.Accounts[0].Handle()
	}
	collection.ActiveHandle = active

	return persist(kv, collection)
}
