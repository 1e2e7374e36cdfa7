package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"collegeportal/internal/catalog/models"
	"collegeportal/internal/catalog/store"
	dErrors "collegeportal/pkg/domain-errors"
	"collegeportal/pkg/platform/sentinel"
)

type CatalogSuite struct {
	suite.Suite
	catalog *Catalog
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	c, err := NewFixture()
	s.Require().NoError(err)
	s.catalog = c
}

func (s *CatalogSuite) TestListing() {
	s.Run("projects keep fixture order", func() {
		projects := s.catalog.ListProjects()
		s.Require().Len(projects, 6)
		for i, p := range projects {
			s.Equal(store.FixtureProjects()[i].ID, p.ID)
		}
	})

	s.Run("institutions keep fixture order", func() {
		names := []string{}
		for _, inst := range s.catalog.ListInstitutions() {
			names = append(names, inst.Name)
		}
		s.Equal([]string{"MIT University", "Stanford University", "Harvard University", "Yale University"}, names)
	})

	s.Run("returned slices are copies", func() {
		projects := s.catalog.ListProjects()
		projects[0].Title = "mutated"
		projects[0].Tags[0] = "mutated"

		again := s.catalog.ListProjects()
		s.Equal("AI-Powered Smart Campus System", again[0].Title)
		s.Equal("AI", again[0].Tags[0])
	})
}

func (s *CatalogSuite) TestProjectByID() {
	s.Run("known id", func() {
		p, err := s.catalog.ProjectByID("3")
		s.Require().NoError(err)
		s.Equal("Virtual Reality Biology Lab", p.Title)
		s.Equal("Harvard University", p.InstitutionName)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.catalog.ProjectByID("999")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *CatalogSuite) TestProjectsByInstitutionMatchesDeclaredCounts() {
	for _, inst := range s.catalog.ListInstitutions() {
		s.Run(inst.Name, func() {
			projects := s.catalog.ProjectsByInstitution(inst.Name)
			s.Len(projects, inst.ProjectCount)
			for _, p := range projects {
				s.Equal(inst.Name, p.InstitutionName)
			}
		})
	}

	s.Run("match is case sensitive", func() {
		s.Empty(s.catalog.ProjectsByInstitution("mit university"))
	})

	s.Run("order follows catalog", func() {
		projects := s.catalog.ProjectsByInstitution("Stanford University")
		s.Require().Len(projects, 2)
		s.Equal("2", projects[0].ID)
		s.Equal("6", projects[1].ID)
	})
}

func (s *CatalogSuite) TestDistinctTags() {
	tags := s.catalog.DistinctTags()
	s.Equal([]string{
		"AI", "Biology", "Blockchain", "EdTech", "Education", "Environmental", "IoT",
		"Machine Learning", "Mental Health", "Mobile App", "Personalization", "Security",
		"Support Services", "Sustainability", "VR", "Water Management",
	}, tags)
}

func (s *CatalogSuite) TestInstitutionByName() {
	inst, err := s.catalog.InstitutionByName("Yale University")
	s.Require().NoError(err)
	s.Equal("New Haven, CT", inst.Location)

	_, err = s.catalog.InstitutionByName("Oxford")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CatalogSuite) TestFeatured() {
	s.Len(s.catalog.Featured(3), 3)
	s.Equal("1", s.catalog.Featured(3)[0].ID)
	s.Len(s.catalog.Featured(100), 6)
	s.Empty(s.catalog.Featured(-1))
}

func (s *CatalogSuite) TestDetailFor() {
	p, err := s.catalog.ProjectByID("2")
	s.Require().NoError(err)

	detail := DetailFor(p)
	s.Equal("Blockchain Research", detail.Department)
	s.Equal("j.wilson@stanford.edu", detail.Contact.Email)
	s.Equal("Prof. James Wilson", detail.Contact.Lead)
	s.Equal("Science Building, Room 402", detail.Contact.Office)
	s.Contains(detail.Goals, "in the field of Blockchain")
	s.Contains(detail.Goals, "The team at Stanford University")
}

func (s *CatalogSuite) TestNewRejectsInconsistentRecords() {
	s.Run("declared count disagrees", func() {
		institutions := store.FixtureInstitutions()
		institutions[0].ProjectCount = 5

		_, err := New(store.FixtureProjects(), institutions)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("duplicate project id", func() {
		projects := append(store.FixtureProjects(), models.Project{ID: "1", InstitutionName: "Nowhere"})
		_, err := New(projects, store.FixtureInstitutions())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

type stubLoader struct {
	projects     []models.Project
	institutions []models.Institution
	err          error
}

func (l stubLoader) Load(context.Context) ([]models.Project, []models.Institution, error) {
	return l.projects, l.institutions, l.err
}

func (s *CatalogSuite) TestLoad() {
	s.Run("builds from loader output", func() {
		c, err := Load(context.Background(), stubLoader{
			projects:     store.FixtureProjects(),
			institutions: store.FixtureInstitutions(),
		})
		s.Require().NoError(err)
		s.Len(c.ListProjects(), 6)
	})

	s.Run("propagates loader failure", func() {
		_, err := Load(context.Background(), stubLoader{err: errors.New("connection refused")})
		s.ErrorContains(err, "connection refused")
	})
}
