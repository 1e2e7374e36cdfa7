package models

// Project is a read-only catalog entry.
type Project struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	InstitutionName string   `json:"institution_name"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
	CreatedAt       string   `json:"created_at"` // YYYY-MM-DD
	Tags            []string `json:"tags"`
}

// HasTag reports whether tag is one of the project's tags. Exact match.
func (p Project) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Institution is an academic institution listed in the catalog.
//
// Invariants:
//   - ProjectCount equals the number of projects whose InstitutionName is Name
type Institution struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProjectCount int    `json:"project_count"`
	Location     string `json:"location,omitempty"`
}

// Contact identifies the person responsible for a project.
type Contact struct {
	Lead   string `json:"lead"`
	Email  string `json:"email"`
	Office string `json:"office"`
}

// ProjectDetail is the restricted content revealed after a granted
// verification.
type ProjectDetail struct {
	Summary                 string  `json:"summary"`
	Goals                   string  `json:"goals"`
	TechnicalImplementation string  `json:"technical_implementation"`
	ResultsAndImpact        string  `json:"results_and_impact"`
	Institution             string  `json:"institution"`
	Department              string  `json:"department"`
	Status                  string  `json:"status"`
	Contact                 Contact `json:"contact"`
}
