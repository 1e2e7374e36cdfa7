package httptransport

import (
	"net/http"

	"collegeportal/internal/browser"
	catalogmodels "collegeportal/internal/catalog/models"
	"collegeportal/pkg/platform/httputil"
)

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, homeResponse{
		Featured:      h.catalog.Featured(featuredCount),
		Institutions:  h.catalog.ListInstitutions(),
		Authenticated: m.Authenticated(),
	})
}

// handleListProjects filters the catalog by the q, institution and tag query
// parameters. college is accepted as an alias of institution.
func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	institution := q.Get("institution")
	if institution == "" {
		institution = q.Get("college")
	}

	view := browser.NewView(h.catalog.ListProjects(), browser.Criteria{
		Search:      q.Get("q"),
		Institution: institution,
		Tag:         q.Get("tag"),
	})
	results := view.Results()
	if results == nil {
		results = []catalogmodels.Project{}
	}
	criteria := view.Criteria()

	httputil.WriteJSON(w, http.StatusOK, projectListResponse{
		Projects:     results,
		Total:        view.Total(),
		Showing:      len(results),
		Tags:         h.catalog.DistinctTags(),
		Institutions: h.institutionNames(),
		Filters: projectFilters{
			Search:      criteria.Search,
			Institution: criteria.Institution,
			Tag:         criteria.Tag,
		},
		FiltersActive: view.Active(),
	})
}

// handleColleges lists every institution with a preview of its first
// projects.
func (h *Handler) handleColleges(w http.ResponseWriter, r *http.Request) {
	institutions := h.catalog.ListInstitutions()
	resp := collegesResponse{Colleges: make([]collegeEntry, 0, len(institutions))}
	for _, inst := range institutions {
		projects := h.catalog.ProjectsByInstitution(inst.Name)
		if len(projects) > collegePreviewCount {
			projects = projects[:collegePreviewCount]
		}
		if projects == nil {
			projects = []catalogmodels.Project{}
		}
		resp.Colleges = append(resp.Colleges, collegeEntry{Institution: inst, Projects: projects})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) institutionNames() []string {
	institutions := h.catalog.ListInstitutions()
	names := make([]string, len(institutions))
	for i, inst := range institutions {
		names[i] = inst.Name
	}
	return names
}
