package main

import (
	"context"
	"log/slog"
	"time"

	"collegeportal/internal/catalog"
	catalogstore "collegeportal/internal/catalog/store"
	"collegeportal/internal/platform/config"
	dErrors "collegeportal/pkg/domain-errors"
)

const defaultCatalogLoadTimeout = 15 * time.Second

// loadCatalog builds the catalog from Postgres when a database is
// configured, from a YAML file when one is named, and from the built-in
// fixture otherwise. The database is only read once; the handle is closed
// before returning.
func loadCatalog(ctx context.Context, cfg config.Database, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogFile != "" {
		cat, err := catalog.Load(ctx, catalogstore.NewYAMLLoader(cfg.CatalogFile))
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "loaded catalog from file",
			"path", cfg.CatalogFile,
			"projects", len(cat.ListProjects()),
		)
		return cat, nil
	}
	if cfg.URL == "" {
		logger.InfoContext(ctx, "serving built-in catalog fixture")
		return catalog.NewFixture()
	}

	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "catalog load aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCatalogLoadTimeout)
		defer cancel()
	}

	db, err := catalogstore.OpenPostgres(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := catalogstore.Migrate(ctx, db); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(ctx, catalogstore.NewPostgresLoader(db))
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "loaded catalog from postgres",
		"projects", len(cat.ListProjects()),
		"institutions", len(cat.ListInstitutions()),
	)
	return cat, nil
}
