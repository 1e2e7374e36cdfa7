// Package browser narrows the catalog down to what a visitor asked for.
package browser

import (
	"collegeportal/internal/catalog/models"
	pstrings "collegeportal/pkg/platform/strings"
)

// Criteria holds the three browse inputs. An empty field disables its
// predicate.
type Criteria struct {
	Search      string `json:"q,omitempty"`
	Institution string `json:"institution,omitempty"`
	Tag         string `json:"tag,omitempty"`
}

// Active reports whether any predicate is enabled.
func (c Criteria) Active() bool {
	return c.Search != "" || c.Institution != "" || c.Tag != ""
}

// Matches reports whether p satisfies every active predicate: a
// case-insensitive substring of title or description, an exact institution
// name, and tag membership.
func (c Criteria) Matches(p models.Project) bool {
	if c.Search != "" && !pstrings.ContainsFold(p.Title, c.Search) && !pstrings.ContainsFold(p.Description, c.Search) {
		return false
	}
	if c.Institution != "" && p.InstitutionName != c.Institution {
		return false
	}
	if c.Tag != "" && !p.HasTag(c.Tag) {
		return false
	}
	return true
}

// Filter returns the projects matching c, preserving input order.
func Filter(projects []models.Project, c Criteria) []models.Project {
	result := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if c.Matches(p) {
			result = append(result, p)
		}
	}
	return result
}

// View keeps a filtered list in step with its inputs: every setter
// recomputes Results. A View is owned by one request and is not safe for
// concurrent use.
type View struct {
	source   []models.Project
	criteria Criteria
	results  []models.Project
}

// NewView starts a view over source with the given criteria applied.
func NewView(source []models.Project, c Criteria) *View {
	v := &View{source: source, criteria: c}
	v.recompute()
	return v
}

func (v *View) SetSearch(text string) {
	v.criteria.Search = text
	v.recompute()
}

func (v *View) SetInstitution(name string) {
	v.criteria.Institution = name
	v.recompute()
}

func (v *View) SetTag(tag string) {
	v.criteria.Tag = tag
	v.recompute()
}

// Clear disables every predicate.
func (v *View) Clear() {
	v.criteria = Criteria{}
	v.recompute()
}

func (v *View) Criteria() Criteria        { return v.criteria }
func (v *View) Results() []models.Project { return v.results }
func (v *View) Active() bool              { return v.criteria.Active() }

// Total is the unfiltered project count.
func (v *View) Total() int { return len(v.source) }

func (v *View) recompute() {
	v.results = Filter(v.source, v.criteria)
}
