// seed inserts sample portfolio content for local testing. Run via go run ./cmd/seed.
// Idempotent: skips inserts if any section already exists.
package main

import (
	"context"
	"log"
	"os"

	"portfolio-admin/internal/config"
	"portfolio-admin/internal/db"
	"portfolio-admin/internal/portfolio/domain"
	"portfolio-admin/internal/portfolio/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	counts, err := store.Sections.Count(ctx)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if counts.Total > 0 {
		log.Println("Seed already applied (sections exist). Skipping.")
		os.Exit(0)
	}

	for i, s := range []domain.Section{
		{SectionName: "hero", Title: "Hi, I'm a developer", Subtitle: "Full-stack engineer", Content: "I build things for the web."},
		{SectionName: "about", Title: "About", Content: "Engineer focused on reliable backends and clean interfaces."},
		{SectionName: "contact", Title: "Get in touch", Subtitle: "Open to new opportunities"},
	} {
		s.IsVisible = true
		s.DisplayOrder = i
		mustCreate(ctx, "section", store.Sections, &s)
	}

	for i, p := range []domain.Project{
		{
			Title:        "Portfolio",
			Description:  "This site, with a two-factor admin panel.",
			Technologies: []string{"Go", "PostgreSQL", "Redis"},
			GithubURL:    "https://github.com/example/portfolio",
			Category:     "web",
			IsFeatured:   true,
		},
		{
			Title:        "Link shortener",
			Description:  "Tiny URL service with click analytics.",
			Technologies: []string{"Go", "Redis"},
			Category:     "backend",
		},
	} {
		p.IsVisible = true
		p.DisplayOrder = i
		mustCreate(ctx, "project", store.Projects, &p)
	}

	for i, s := range []domain.Skill{
		{Name: "Go", Category: "Languages", Proficiency: 90},
		{Name: "TypeScript", Category: "Languages", Proficiency: 80},
		{Name: "PostgreSQL", Category: "Databases", Proficiency: 75},
		{Name: "Docker", Category: "Tools", Proficiency: 70},
	} {
		s.IsVisible = true
		s.DisplayOrder = i
		mustCreate(ctx, "skill", store.Skills, &s)
	}

	endMonth, endYear := 6, 2024
	for i, e := range []domain.Experience{
		{CompanyName: "Acme", Position: "Backend Engineer", Location: "Remote", IsCurrent: true, StartMonth: 7, StartYear: 2024},
		{CompanyName: "Initech", Position: "Software Engineer", Location: "Pune", StartMonth: 1, StartYear: 2022, EndMonth: &endMonth, EndYear: &endYear},
	} {
		e.IsVisible = true
		e.DisplayOrder = i
		mustCreate(ctx, "experience", store.Experiences, &e)
	}

	for i, c := range []domain.ContactInfo{
		{FieldName: "email", DisplayLabel: "Email", FieldValue: cfg.AdminEmail, Icon: "mail"},
		{FieldName: "github", DisplayLabel: "GitHub", FieldValue: "https://github.com/example", Icon: "github"},
	} {
		if c.FieldValue == "" {
			continue
		}
		c.IsVisible = true
		c.DisplayOrder = i
		mustCreate(ctx, "contact", store.Contacts, &c)
	}

	cert := domain.Certification{
		Title:        "Certified Kubernetes Administrator",
		Issuer:       "CNCF",
		IssueDate:    "2024-01-15",
		ExpiryDate:   "2027-01-15",
		IsVisible:    true,
		DisplayOrder: 0,
	}
	mustCreate(ctx, "certification", store.Certifications, &cert)

	log.Println("Seed completed successfully.")
}

type validator interface{ Validate() error }

func mustCreate[T any, PT interface {
	*T
	validator
}](ctx context.Context, kind string, repo *repository.Repository[T], v PT) {
	if err := v.Validate(); err != nil {
		log.Fatalf("seed %s: %v", kind, err)
	}
	if _, err := repo.Create(ctx, (*T)(v)); err != nil {
		log.Fatalf("create %s: %v", kind, err)
	}
}
