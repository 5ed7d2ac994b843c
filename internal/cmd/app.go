package cmd

import (
	"errors"
	"fmt"

	"github.com/johanforsgren/threadline/internal/auth"
	"github.com/johanforsgren/threadline/internal/config"
	"github.com/johanforsgren/threadline/internal/content"
	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
	"github.com/johanforsgren/threadline/internal/oauth"
	"github.com/johanforsgren/threadline/internal/provider"
	"github.com/johanforsgren/threadline/internal/storage"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	kv      domain.KeyValueStore
	auth    *auth.Service
	content *content.Store
	closers []func() error
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath, ".env")
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{Path: cfg.Log.Path, Level: cfg.Log.Level}); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, closers: []func() error{logger.Close}}

	kv, closer, err := openStore(cfg.Storage)
	if err != nil {
		a.close()
		return nil, err
	}
	a.kv = kv
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	version, err := storage.Migrate(kv)
	if err != nil {
		a.close()
		return nil, err
	}
	logger.Log("Storage at schema v%d", version)

	a.content = content.NewStore(cfg.ContentTTL)
	a.auth, err = auth.New(auth.Deps{
		KV:      kv,
		Store:   storage.NewCredentialStore(kv, storage.WithStrictHandles(cfg.StrictActive)),
		OAuth:   oauth.NewReddit(),
		Clients: provider.NewManager(nil),
		FanOut:  content.NewRegistry(a.content.Resetters()...),
		Content: a.content,
	},
		auth.WithConnectedInstance(cfg.Instance),
		auth.WithClearPendingOnSuccess(cfg.ClearPendingOnSuccess),
		auth.WithUserAgent(cfg.OAuth.UserAgent),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func openStore(cfg config.StorageConfig) (domain.KeyValueStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil, nil
	case config.DriverRedis:
		rs, err := storage.NewRedisStore(storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			Timeout:  cfg.RedisTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	case config.DriverFile, "":
		fs, err := storage.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return fs, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
