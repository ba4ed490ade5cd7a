// Package domain holds the portfolio content entities managed from the admin API.
package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrValidation is wrapped by every Validate failure.
var ErrValidation = errors.New("validation failed")

// FeaturedLimit is how many featured projects the public site shows.
const FeaturedLimit = 6

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error { return &validationError{msg: msg} }

func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return invalid(pairs[i] + " is required")
		}
	}
	return nil
}

// Project is a portfolio project card.
type Project struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	LongDescription string    `db:"long_description" json:"long_description"`
	Technologies    []string  `db:"technologies" json:"technologies"`
	ImageURL        string    `db:"image_url" json:"image_url"`
	GithubURL       string    `db:"github_url" json:"github_url"`
	LiveURL         string    `db:"live_url" json:"live_url"`
	Category        string    `db:"category" json:"category"`
	IsVisible       bool      `db:"is_visible" json:"is_visible"`
	IsFeatured      bool      `db:"is_featured" json:"is_featured"`
	DisplayOrder    int       `db:"display_order" json:"display_order"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks required fields and normalizes the technology list.
func (p *Project) Validate() error {
	if err := required("title", p.Title); err != nil {
		return err
	}
	techs := p.Technologies[:0]
	for _, t := range p.Technologies {
		if t = strings.TrimSpace(t); t != "" {
			techs = append(techs, t)
		}
	}
	if techs == nil {
		techs = []string{}
	}
	p.Technologies = techs
	return nil
}

// Skill is one entry in the skills grid, grouped by Category on the public site.
type Skill struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Category     string    `db:"category" json:"category"`
	Proficiency  int       `db:"proficiency" json:"proficiency"`
	Icon         string    `db:"icon" json:"icon"`
	IsVisible    bool      `db:"is_visible" json:"is_visible"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Validate requires a name and a proficiency between 0 and 100.
func (s *Skill) Validate() error {
	if err := required("name", s.Name); err != nil {
		return err
	}
	if s.Proficiency < 0 || s.Proficiency > 100 {
		return invalid("proficiency must be between 0 and 100")
	}
	return nil
}

// GroupSkillsByCategory groups skills by category, keeping the input order within each group.
func GroupSkillsByCategory(skills []Skill) map[string][]Skill {
	out := make(map[string][]Skill)
	for _, s := range skills {
		out[s.Category] = append(out[s.Category], s)
	}
	return out
}

// Experience is a position on the work history timeline.
// EndMonth and EndYear are nil while IsCurrent is set.
type Experience struct {
	ID           string    `db:"id" json:"id"`
	CompanyName  string    `db:"company_name" json:"company_name"`
	Position     string    `db:"position" json:"position"`
	Description  string    `db:"description" json:"description"`
	Location     string    `db:"location" json:"location"`
	IsCurrent    bool      `db:"is_current" json:"is_current"`
	StartMonth   int       `db:"start_month" json:"start_month"`
	StartYear    int       `db:"start_year" json:"start_year"`
	EndMonth     *int      `db:"end_month" json:"end_month"`
	EndYear      *int      `db:"end_year" json:"end_year"`
	IsVisible    bool      `db:"is_visible" json:"is_visible"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the date range. A current position drops any end date.
func (e *Experience) Validate() error {
	if err := required("company_name", e.CompanyName, "position", e.Position); err != nil {
		return err
	}
	if e.StartMonth < 1 || e.StartMonth > 12 {
		return invalid("start_month must be between 1 and 12")
	}
	if e.StartYear < 1900 {
		return invalid("start_year is required")
	}
	if e.IsCurrent {
		e.EndMonth, e.EndYear = nil, nil
		return nil
	}
	if (e.EndMonth == nil) != (e.EndYear == nil) {
		return invalid("end_month and end_year must be set together")
	}
	if e.EndMonth == nil {
		return nil
	}
	if *e.EndMonth < 1 || *e.EndMonth > 12 {
		return invalid("end_month must be between 1 and 12")
	}
	if *e.EndYear*12+*e.EndMonth < e.StartYear*12+e.StartMonth {
		return invalid("end date is before start date")
	}
	return nil
}

// ContactInfo is one contact channel (email, phone, social link).
type ContactInfo struct {
	ID           string    `db:"id" json:"id"`
	FieldName    string    `db:"field_name" json:"field_name"`
	DisplayLabel string    `db:"display_label" json:"display_label"`
	FieldValue   string    `db:"field_value" json:"field_value"`
	Icon         string    `db:"icon" json:"icon"`
	IsVisible    bool      `db:"is_visible" json:"is_visible"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (c *ContactInfo) Validate() error {
	return required("field_name", c.FieldName, "field_value", c.FieldValue)
}

// Section is an editable block of page copy, keyed by SectionName (hero, about, ...).
type Section struct {
	ID           string    `db:"id" json:"id"`
	SectionName  string    `db:"section_name" json:"section_name"`
	Title        string    `db:"title" json:"title"`
	Subtitle     string    `db:"subtitle" json:"subtitle"`
	Content      string    `db:"content" json:"content"`
	IsVisible    bool      `db:"is_visible" json:"is_visible"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (s *Section) Validate() error {
	s.SectionName = strings.ToLower(strings.TrimSpace(s.SectionName))
	return required("section_name", s.SectionName)
}

// CertDateLayout is the format of certification issue and expiry dates.
const CertDateLayout = "2006-01-02"

// Certification is a credential or course certificate. Dates are optional CertDateLayout strings.
type Certification struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Issuer        string    `db:"issuer" json:"issuer"`
	CredentialID  string    `db:"credential_id" json:"credential_id"`
	CredentialURL string    `db:"credential_url" json:"credential_url"`
	BadgeURL      string    `db:"badge_url" json:"badge_url"`
	IssueDate     string    `db:"issue_date" json:"issue_date"`
	ExpiryDate    string    `db:"expiry_date" json:"expiry_date"`
	IsVisible     bool      `db:"is_visible" json:"is_visible"`
	DisplayOrder  int       `db:"display_order" json:"display_order"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Certification) Validate() error {
	if err := required("title", c.Title, "issuer", c.Issuer); err != nil {
		return err
	}
	issued, err := parseCertDate("issue_date", c.IssueDate)
	if err != nil {
		return err
	}
	expires, err := parseCertDate("expiry_date", c.ExpiryDate)
	if err != nil {
		return err
	}
	if !issued.IsZero() && !expires.IsZero() && expires.Before(issued) {
		return invalid("expiry_date is before issue_date")
	}
	return nil
}

func parseCertDate(field, v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(CertDateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, invalid(field + " must be YYYY-MM-DD")
	}
	return t, nil
}

// ProfileSectionName is the section row that holds the profile image URL.
const ProfileSectionName = "profile"

// Profile is the public profile settings stored in the profile section.
type Profile struct {
	ImageURL *string `json:"profile_image_url"`
}

// ProfileFromSection reads the profile out of its section row. A nil or empty row has no image.
func ProfileFromSection(s *Section) Profile {
	if s == nil || s.Content == "" {
		return Profile{}
	}
	url := s.Content
	return Profile{ImageURL: &url}
}

// Section returns the profile section row to store for p.
func (p Profile) Section() *Section {
	s := &Section{SectionName: ProfileSectionName, Title: "Profile Image", IsVisible: true}
	if p.ImageURL != nil {
		s.Content = strings.TrimSpace(*p.ImageURL)
	}
	return s
}
