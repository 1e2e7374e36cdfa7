package httptransport

import (
	catalogmodels "collegeportal/internal/catalog/models"
	"collegeportal/internal/gate"
	sessionmodels "collegeportal/internal/session/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool                         `json:"authenticated"`
	Loading       bool                         `json:"loading"`
	User          *sessionmodels.Identity      `json:"user,omitempty"`
	Notifications []sessionmodels.Notification `json:"notifications"`
}

type homeResponse struct {
	Featured      []catalogmodels.Project     `json:"featured"`
	Institutions  []catalogmodels.Institution `json:"institutions"`
	Authenticated bool                        `json:"authenticated"`
}

type projectFilters struct {
	Search      string `json:"q,omitempty"`
	Institution string `json:"institution,omitempty"`
	Tag         string `json:"tag,omitempty"`
}

type projectListResponse struct {
	Projects      []catalogmodels.Project `json:"projects"`
	Total         int                     `json:"total"`
	Showing       int                     `json:"showing"`
	Tags          []string                `json:"tags"`
	Institutions  []string                `json:"institutions"`
	Filters       projectFilters          `json:"filters"`
	FiltersActive bool                    `json:"filters_active"`
}

type collegeEntry struct {
	catalogmodels.Institution
	Projects []catalogmodels.Project `json:"projects"`
}

type collegesResponse struct {
	Colleges []collegeEntry `json:"colleges"`
}

type accessResponse struct {
	Project catalogmodels.Project        `json:"project"`
	Gate    gate.Snapshot                `json:"gate"`
	Content *catalogmodels.ProjectDetail `json:"content,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newAccessResponse(p catalogmodels.Project, g *gate.Gate) accessResponse {
	resp := accessResponse{Project: p, Gate: g.Snapshot()}
	if detail, ok := g.Content(); ok {
		resp.Content = &detail
	}
	return resp
}
