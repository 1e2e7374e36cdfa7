//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"collegeportal/internal/catalog/store"
	"collegeportal/pkg/testutil/containers"
)

type PostgresLoaderSuite struct {
	suite.Suite
	loader *store.PostgresLoader
}

func TestPostgresLoaderSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLoaderSuite))
}

func (s *PostgresLoaderSuite) SetupSuite() {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(s.T())

	db, err := store.OpenPostgres(ctx, pg.DSN)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	s.Require().NoError(store.Migrate(ctx, db))
	s.loader = store.NewPostgresLoader(db)
}

func (s *PostgresLoaderSuite) TestSeededCatalogMatchesFixture() {
	projects, institutions, err := s.loader.Load(context.Background())
	s.Require().NoError(err)

	s.Equal(store.FixtureProjects(), projects)
	s.Equal(store.FixtureInstitutions(), institutions)
}
