package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"portfolio-admin/internal/platform/httpx"
	"portfolio-admin/internal/portfolio/domain"
	"portfolio-admin/internal/portfolio/repository"
)

// Sources are the stores for every content entity.
type Sources struct {
	Projects       Store[domain.Project]
	Skills         Store[domain.Skill]
	Experiences    Store[domain.Experience]
	Contacts       Store[domain.ContactInfo]
	Sections       Store[domain.Section]
	Certifications Store[domain.Certification]
	// Profile holds the profile section row. Nil disables the profile routes.
	Profile ProfileStore
}

// FromRepository adapts a repository.Store to Sources.
func FromRepository(s *repository.Store) Sources {
	return Sources{
		Projects:       s.Projects,
		Skills:         s.Skills,
		Experiences:    s.Experiences,
		Contacts:       s.Contacts,
		Sections:       s.Sections,
		Certifications: s.Certifications,
		Profile:        s.Sections,
	}
}

// Content serves the public content API and the admin content API.
type Content struct {
	src Sources
	log *slog.Logger
	now func() time.Time

	projects    *Resource[domain.Project, *domain.Project]
	skills      *Resource[domain.Skill, *domain.Skill]
	experiences *Resource[domain.Experience, *domain.Experience]
	contacts    *Resource[domain.ContactInfo, *domain.ContactInfo]
	sections    *Resource[domain.Section, *domain.Section]
	certs       *Resource[domain.Certification, *domain.Certification]
}

// NewContent returns the content handlers over src. log may be nil.
func NewContent(src Sources, log *slog.Logger) *Content {
	if log == nil {
		log = slog.Default()
	}
	return &Content{
		src:         src,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		projects:    NewResource[domain.Project, *domain.Project](src.Projects, ResourceOptions{}, log),
		skills:      NewResource[domain.Skill, *domain.Skill](src.Skills, ResourceOptions{}, log),
		experiences: NewResource[domain.Experience, *domain.Experience](src.Experiences, ResourceOptions{ConfirmDelete: true}, log),
		contacts:    NewResource[domain.ContactInfo, *domain.ContactInfo](src.Contacts, ResourceOptions{}, log),
		sections:    NewResource[domain.Section, *domain.Section](src.Sections, ResourceOptions{}, log),
		certs:       NewResource[domain.Certification, *domain.Certification](src.Certifications, ResourceOptions{}, log),
	}
}

// PublicRoutes mounts the visible-content API, typically under /api.
func (c *Content) PublicRoutes(r chi.Router) {
	r.Route("/projects", c.projects.PublicRoutes)
	r.Route("/skills", func(r chi.Router) {
		c.skills.PublicRoutes(r)
		r.Get("/by-category", c.skillsByCategory)
	})
	r.Route("/experience", c.experiences.PublicRoutes)
	r.Route("/contact", c.contacts.PublicRoutes)
	r.Route("/sections", c.sections.PublicRoutes)
	r.Route("/certifications", c.certs.PublicRoutes)
	if c.src.Profile != nil {
		r.Get("/profile", c.GetProfile)
	}
}

// AdminRoutes mounts the content management API, typically under /admin/api.
func (c *Content) AdminRoutes(r chi.Router) {
	r.Route("/projects", c.projects.AdminRoutes)
	r.Route("/skills", c.skills.AdminRoutes)
	r.Route("/experience", c.experiences.AdminRoutes)
	r.Route("/contact", c.contacts.AdminRoutes)
	r.Route("/sections", c.sections.AdminRoutes)
	r.Route("/certifications", c.certs.AdminRoutes)
	if c.src.Profile != nil {
		r.Get("/profile", c.GetProfile)
		r.Post("/profile", c.SaveProfile)
	}
	r.Get("/stats", c.Stats)
	r.Get("/export", c.Export)
	r.Get("/backup", c.Backup)
}

func (c *Content) skillsByCategory(w http.ResponseWriter, r *http.Request) {
	skills, err := c.src.Skills.List(r.Context(), true)
	if err != nil {
		c.storeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, domain.GroupSkillsByCategory(skills))
}

// Stats returns total and visible counts per entity.
func (c *Content) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.stats(r.Context())
	if err != nil {
		c.storeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

// Dashboard is the admin landing page payload: session status plus content counts.
func (c *Content) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := c.stats(r.Context())
	if err != nil {
		c.storeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"authenticated": true, "stats": stats})
}

func (c *Content) stats(ctx context.Context) (map[string]repository.Counts, error) {
	counters := map[string]interface {
		Count(context.Context) (repository.Counts, error)
	}{
		"projects":       c.src.Projects,
		"skills":         c.src.Skills,
		"experience":     c.src.Experiences,
		"contact":        c.src.Contacts,
		"sections":       c.src.Sections,
		"certifications": c.src.Certifications,
	}
	out := make(map[string]repository.Counts, len(counters))
	for name, s := range counters {
		n, err := s.Count(ctx)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

// ExportData is the full content dump returned by Export.
type ExportData struct {
	ExportDate        time.Time              `json:"exportDate"`
	Projects          []domain.Project       `json:"projects"`
	Skills            []domain.Skill         `json:"skills"`
	Experience        []domain.Experience    `json:"experience"`
	ContactInfo       []domain.ContactInfo   `json:"contactInfo"`
	PortfolioSections []domain.Section       `json:"portfolioSections"`
	Certifications    []domain.Certification `json:"certifications"`
}

// Export returns every row of every entity, hidden ones included.
func (c *Content) Export(w http.ResponseWriter, r *http.Request) {
	data := ExportData{ExportDate: c.now()}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { data.Projects, err = c.src.Projects.List(ctx, false); return })
	g.Go(func() (err error) { data.Skills, err = c.src.Skills.List(ctx, false); return })
	g.Go(func() (err error) { data.Experience, err = c.src.Experiences.List(ctx, false); return })
	g.Go(func() (err error) { data.ContactInfo, err = c.src.Contacts.List(ctx, false); return })
	g.Go(func() (err error) { data.PortfolioSections, err = c.src.Sections.List(ctx, false); return })
	g.Go(func() (err error) { data.Certifications, err = c.src.Certifications.List(ctx, false); return })
	if err := g.Wait(); err != nil {
		c.log.Error("export failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to export portfolio data")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio-export-`+data.ExportDate.Format("2006-01-02")+`.json"`)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// Backup returns the page sections, which hold the site settings.
func (c *Content) Backup(w http.ResponseWriter, r *http.Request) {
	sections, err := c.src.Sections.List(r.Context(), false)
	if err != nil {
		c.log.Error("backup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to backup settings")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"backupDate":        c.now(),
			"portfolioSections": sections,
		},
	})
}

func (c *Content) storeError(w http.ResponseWriter, err error) {
	c.log.Error("portfolio store error", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, err.Error())
}
