package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"collegeportal/internal/catalog/models"
)

type yamlDocument struct {
	Institutions []yamlInstitution `yaml:"institutions"`
	Projects     []yamlProject     `yaml:"projects"`
}

type yamlInstitution struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

type yamlProject struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Institution string   `yaml:"institution"`
	Thumbnail   string   `yaml:"thumbnail"`
	CreatedAt   string   `yaml:"created_at"`
	Tags        []string `yaml:"tags"`
}

// YAMLLoader reads the catalog from a YAML document. Institution project
// counts are derived from the projects that name them.
type YAMLLoader struct {
	path string
}

func NewYAMLLoader(path string) *YAMLLoader {
	return &YAMLLoader{path: path}
}

func (l *YAMLLoader) Load(ctx context.Context) ([]models.Project, []models.Institution, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a catalog document. Unknown fields are rejected.
func ParseYAML(data []byte) ([]models.Project, []models.Institution, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("catalog file is empty")
		}
		return nil, nil, fmt.Errorf("parse catalog file: %w", err)
	}

	counts := make(map[string]int, len(doc.Institutions))
	projects := make([]models.Project, 0, len(doc.Projects))
	for i, p := range doc.Projects {
		if p.ID == "" || p.Title == "" || p.Institution == "" {
			return nil, nil, fmt.Errorf("project %d: id, title, institution required", i)
		}
		if p.CreatedAt != "" {
			if _, err := time.Parse(time.DateOnly, p.CreatedAt); err != nil {
				return nil, nil, fmt.Errorf("project %s: created_at must be YYYY-MM-DD", p.ID)
			}
		}
		counts[p.Institution]++
		projects = append(projects, models.Project{
			ID:              p.ID,
			Title:           p.Title,
			Description:     p.Description,
			InstitutionName: p.Institution,
			Thumbnail:       p.Thumbnail,
			CreatedAt:       p.CreatedAt,
			Tags:            append([]string(nil), p.Tags...),
		})
	}

	institutions := make([]models.Institution, 0, len(doc.Institutions))
	for _, inst := range doc.Institutions {
		institutions = append(institutions, models.Institution{
			ID:           inst.ID,
			Name:         inst.Name,
			ProjectCount: counts[inst.Name],
			Location:     inst.Location,
		})
	}
	return projects, institutions, nil
}
