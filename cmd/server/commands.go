package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"collegeportal/internal/catalog"
	catalogstore "collegeportal/internal/catalog/store"
	"collegeportal/internal/platform/config"
	"collegeportal/internal/platform/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply catalog migrations to DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultCatalogLoadTimeout)
			defer cancel()

			db, err := catalogstore.OpenPostgres(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			if err := catalogstore.Migrate(ctx, db); err != nil {
				return err
			}
			logger.New(cfg.LogLevel).InfoContext(ctx, "catalog migrations applied")
			return nil
		},
	}
}

// checkCatalogCmd validates a YAML catalog document without starting the
// server.
func checkCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-catalog <file>",
		Short: "Validate a YAML catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(cmd.Context(), catalogstore.NewYAMLLoader(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d projects, %d institutions, %d tags\n",
				args[0], len(cat.ListProjects()), len(cat.ListInstitutions()), len(cat.DistinctTags()))
			return nil
		},
	}
}
