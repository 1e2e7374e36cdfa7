package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"collegeportal/internal/catalog/models"
	"collegeportal/internal/catalog/store/migrations"
)

// OpenPostgres opens a pgx-backed database handle and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded catalog schema and seed data.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

// PostgresLoader reads the catalog tables once at startup. The result feeds
// catalog.New and is immutable afterwards.
type PostgresLoader struct {
	db *sql.DB
}

func NewPostgresLoader(db *sql.DB) *PostgresLoader {
	return &PostgresLoader{db: db}
}

// Load reads projects and institutions concurrently, each in catalog order.
func (l *PostgresLoader) Load(ctx context.Context) ([]models.Project, []models.Institution, error) {
	var (
		projects     []models.Project
		institutions []models.Institution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = l.loadProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		institutions, err = l.loadInstitutions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return projects, institutions, nil
}

func (l *PostgresLoader) loadProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, title, description, institution_name, thumbnail, created_at, tags
		FROM projects
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var (
			p         models.Project
			thumbnail sql.NullString
			createdAt time.Time
			tags      []string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.InstitutionName, &thumbnail, &createdAt, pq.Array(&tags)); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Thumbnail = thumbnail.String
		p.CreatedAt = createdAt.Format(time.DateOnly)
		p.Tags = tags
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (l *PostgresLoader) loadInstitutions(ctx context.Context) ([]models.Institution, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, project_count, location
		FROM institutions
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query institutions: %w", err)
	}
	defer rows.Close()

	var institutions []models.Institution
	for rows.Next() {
		var (
			inst     models.Institution
			location sql.NullString
		)
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.ProjectCount, &location); err != nil {
			return nil, fmt.Errorf("scan institution: %w", err)
		}
		inst.Location = location.String
		institutions = append(institutions, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate institutions: %w", err)
	}
	return institutions, nil
}
