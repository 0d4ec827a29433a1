package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/himnario/pkg/cache"
	"github.com/hazyhaar/himnario/pkg/catalog"
	"github.com/hazyhaar/himnario/pkg/hymn"
	"github.com/hazyhaar/himnario/pkg/session"
	"github.com/hazyhaar/himnario/pkg/source/assets"
	"github.com/hazyhaar/himnario/pkg/source/drive"
	"github.com/hazyhaar/himnario/pkg/source/rest"
)

// app wires one configured source with its stores. Everything is built
// here; no package keeps global state.
type app struct {
	cfg    config
	logger *slog.Logger

	data    *cache.SQLiteStore
	store   cache.Store
	session *session.Store

	repo    hymn.Repository
	rest    *rest.Repository
	catalog *catalog.Catalog
}

func openApp(ctx context.Context, cfg config, logger *slog.Logger) (*app, error) {
	data, err := cache.OpenSQLite(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		data:    data,
		session: session.New(data),
	}

	switch cfg.Cache.Backend {
	case backendRedis:
		rs, err := cache.OpenRedis(ctx, cfg.Cache.Redis)
		if err != nil {
			data.Close()
			return nil, err
		}
		a.store = rs
	case backendMemory:
		a.store = cache.NewMemoryStore()
	default:
		a.store = data
	}

	if err := a.buildRepository(); err != nil {
		a.Close()
		return nil, err
	}
	a.catalog = catalog.New(a.repo, logger)
	return a, nil
}

func (a *app) buildRepository() error {
	logger := a.logger.With("source", a.cfg.Source.Kind)

	switch a.cfg.Source.Kind {
	case sourceAssets:
		a.repo = assets.New(assets.NewLoader(a.cfg.Source.Assets.Base), logger)

	case sourceREST:
		a.rest = rest.New(rest.NewClient(a.cfg.Source.REST, a.session, logger))
		a.repo = a.rest

	case sourceDrive:
		files := drive.NewClient(a.cfg.Source.Drive)
		if !a.cfg.Cache.Enabled {
			a.repo = drive.New(files, a.cfg.Source.Drive.FolderID, logger)
			return nil
		}
		tiers := cache.TierConfig{
			Store:  a.store,
			Prefix: a.cfg.Cache.Prefix,
			TTL:    a.cfg.Cache.TTL,
			Logger: logger,
		}
		inner := drive.New(files, a.cfg.Source.Drive.FolderID, logger, drive.WithFileMapCache(tiers))
		a.repo = cache.NewRepository(inner, tiers, cache.WithResolver(inner))

	default:
		return fmt.Errorf("unknown source kind %q", a.cfg.Source.Kind)
	}
	return nil
}

// clearCache removes every durable entry under the cache prefix.
func (a *app) clearCache(ctx context.Context) (int, error) {
	return a.store.DeletePrefix(ctx, a.cfg.Cache.Prefix)
}

func (a *app) Close() error {
	var errs []error
	if a.store != nil && a.store != cache.Store(a.data) {
		errs = append(errs, a.store.Close())
	}
	errs = append(errs, a.data.Close())
	return errors.Join(errs...)
}
