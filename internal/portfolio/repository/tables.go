package repository

import (
	"portfolio-admin/internal/db"
	"portfolio-admin/internal/portfolio/domain"
)

var timestamps = []string{"created_at", "updated_at"}

func columns(writable ...string) []string {
	out := append([]string{"id"}, writable...)
	return append(out, timestamps...)
}

var projectWritable = []string{
	"title", "description", "long_description", "technologies", "image_url", "github_url",
	"live_url", "category", "is_visible", "is_featured", "display_order",
}

// Projects maps domain.Project onto the projects table.
var Projects = Table[domain.Project]{
	Name:     "projects",
	OrderBy:  "display_order, created_at",
	Columns:  columns(projectWritable...),
	Writable: projectWritable,
	Values: func(p *domain.Project) []any {
		return []any{p.Title, p.Description, p.LongDescription, p.Technologies, p.ImageURL, p.GithubURL,
			p.LiveURL, p.Category, p.IsVisible, p.IsFeatured, p.DisplayOrder}
	},
	Featured: true,
}

var skillWritable = []string{"name", "category", "proficiency", "icon", "is_visible", "display_order"}

// Skills maps domain.Skill onto the skills table, ordered within each category.
var Skills = Table[domain.Skill]{
	Name:     "skills",
	OrderBy:  "category, display_order",
	Columns:  columns(skillWritable...),
	Writable: skillWritable,
	Values: func(s *domain.Skill) []any {
		return []any{s.Name, s.Category, s.Proficiency, s.Icon, s.IsVisible, s.DisplayOrder}
	},
}

var experienceWritable = []string{
	"company_name", "position", "description", "location", "is_current", "start_month", "start_year",
	"end_month", "end_year", "is_visible", "display_order",
}

// Experiences maps domain.Experience onto the experience table.
var Experiences = Table[domain.Experience]{
	Name:     "experience",
	OrderBy:  "display_order, start_year DESC, start_month DESC",
	Columns:  columns(experienceWritable...),
	Writable: experienceWritable,
	Values: func(e *domain.Experience) []any {
		return []any{e.CompanyName, e.Position, e.Description, e.Location, e.IsCurrent, e.StartMonth, e.StartYear,
			e.EndMonth, e.EndYear, e.IsVisible, e.DisplayOrder}
	},
}

var contactWritable = []string{"field_name", "display_label", "field_value", "icon", "is_visible", "display_order"}

// Contacts maps domain.ContactInfo onto the contact_info table.
var Contacts = Table[domain.ContactInfo]{
	Name:     "contact_info",
	OrderBy:  "display_order",
	Columns:  columns(contactWritable...),
	Writable: contactWritable,
	Values: func(c *domain.ContactInfo) []any {
		return []any{c.FieldName, c.DisplayLabel, c.FieldValue, c.Icon, c.IsVisible, c.DisplayOrder}
	},
}

var sectionWritable = []string{"section_name", "title", "subtitle", "content", "is_visible", "display_order"}

// Sections maps domain.Section onto the portfolio_sections table.
var Sections = Table[domain.Section]{
	Name:     "portfolio_sections",
	OrderBy:  "display_order",
	Columns:  columns(sectionWritable...),
	Writable: sectionWritable,
	Values: func(s *domain.Section) []any {
		return []any{s.SectionName, s.Title, s.Subtitle, s.Content, s.IsVisible, s.DisplayOrder}
	},
	Key: "section_name",
}

var certificationWritable = []string{
	"title", "issuer", "credential_id", "credential_url", "badge_url", "issue_date", "expiry_date",
	"is_visible", "display_order",
}

// Certifications maps domain.Certification onto the certifications table.
var Certifications = Table[domain.Certification]{
	Name:     "certifications",
	OrderBy:  "display_order, issue_date DESC",
	Columns:  columns(certificationWritable...),
	Writable: certificationWritable,
	Values: func(c *domain.Certification) []any {
		return []any{c.Title, c.Issuer, c.CredentialID, c.CredentialURL, c.BadgeURL, c.IssueDate, c.ExpiryDate,
			c.IsVisible, c.DisplayOrder}
	},
}

// Store groups the repositories for every content table.
type Store struct {
	Projects       *Repository[domain.Project]
	Skills         *Repository[domain.Skill]
	Experiences    *Repository[domain.Experience]
	Contacts       *Repository[domain.ContactInfo]
	Sections       *Repository[domain.Section]
	Certifications *Repository[domain.Certification]
}

// NewStore returns repositories for all content tables backed by q.
func NewStore(q db.Querier) *Store {
	return &Store{
		Projects:       New(q, Projects),
		Skills:         New(q, Skills),
		Experiences:    New(q, Experiences),
		Contacts:       New(q, Contacts),
		Sections:       New(q, Sections),
		Certifications: New(q, Certifications),
	}
}
