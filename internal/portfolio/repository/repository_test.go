package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"portfolio-admin/internal/db"
	"portfolio-admin/internal/portfolio/domain"
)

var _ db.Querier = (*fakeQuerier)(nil)

// fakeQuerier records the last statement and returns canned results.
type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	tag      pgconn.CommandTag
	queryErr error
	row      fakeRow
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	return nil, f.queryErr
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return f.tag, nil
}

type fakeRow struct {
	values []int64
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(*int64)) = r.values[i]
	}
	return nil
}

func TestTables_WritableMatchesValues(t *testing.T) {
	checks := []struct {
		name     string
		writable []string
		values   int
		columns  []string
	}{
		{"projects", Projects.Writable, len(Projects.Values(&domain.Project{})), Projects.Columns},
		{"skills", Skills.Writable, len(Skills.Values(&domain.Skill{})), Skills.Columns},
		{"experience", Experiences.Writable, len(Experiences.Values(&domain.Experience{})), Experiences.Columns},
		{"contact_info", Contacts.Writable, len(Contacts.Values(&domain.ContactInfo{})), Contacts.Columns},
		{"portfolio_sections", Sections.Writable, len(Sections.Values(&domain.Section{})), Sections.Columns},
		{"certifications", Certifications.Writable, len(Certifications.Values(&domain.Certification{})), Certifications.Columns},
	}
	for _, c := range checks {
		if len(c.writable) != c.values {
			t.Errorf("%s: %d writable columns but %d values", c.name, len(c.writable), c.values)
		}
		if len(c.columns) != len(c.writable)+3 || c.columns[0] != "id" {
			t.Errorf("%s: columns = %v", c.name, c.columns)
		}
	}
}

func TestNew_BuildsQueries(t *testing.T) {
	r := New(&fakeQuerier{}, Projects)
	if !strings.HasPrefix(r.selectList, "id::text AS id, title,") {
		t.Errorf("select list = %q", r.selectList)
	}
	if !strings.Contains(r.listPublic, "WHERE is_visible ORDER BY display_order") {
		t.Errorf("public list = %q", r.listPublic)
	}
	if !strings.Contains(r.featured, "WHERE is_visible AND is_featured") || !strings.HasSuffix(r.featured, "LIMIT $1") {
		t.Errorf("featured = %q", r.featured)
	}
	if !strings.Contains(r.insert, "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING") {
		t.Errorf("insert = %q", r.insert)
	}
	if !strings.Contains(r.update, "title = $2,") || !strings.Contains(r.update, "display_order = $12, updated_at = now() WHERE id = $1") {
		t.Errorf("update = %q", r.update)
	}
	if !strings.Contains(New(&fakeQuerier{}, Skills).listAll, "ORDER BY category, display_order") {
		t.Error("skills should be ordered by category then display_order")
	}
}

func TestDelete_NotFound(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("DELETE 0")}
	r := New(q, Skills)
	if err := r.Delete(context.Background(), "id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete err = %v, want ErrNotFound", err)
	}
	q.tag = pgconn.NewCommandTag("DELETE 1")
	if err := r.Delete(context.Background(), "id-1"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if q.lastSQL != "DELETE FROM skills WHERE id = $1" || q.lastArgs[0] != "id-1" {
		t.Errorf("sql = %q args = %v", q.lastSQL, q.lastArgs)
	}
}

func TestCount(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []int64{7, 5}}}
	c, err := New(q, Experiences).Count(context.Background())
	if err != nil || c.Total != 7 || c.Visible != 5 {
		t.Errorf("Count = %+v, %v", c, err)
	}
	if !strings.Contains(q.lastSQL, "FILTER (WHERE is_visible) FROM experience") {
		t.Errorf("sql = %q", q.lastSQL)
	}
}

func TestQueryErrorsPropagate(t *testing.T) {
	boom := errors.New("relation does not exist")
	q := &fakeQuerier{queryErr: boom}
	r := New(q, Contacts)
	if _, err := r.List(context.Background(), true); !errors.Is(err, boom) {
		t.Errorf("List err = %v", err)
	}
	if _, err := r.Get(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("Get err = %v", err)
	}
	if _, err := r.Update(context.Background(), "x", &domain.ContactInfo{}); !errors.Is(err, boom) {
		t.Errorf("Update err = %v", err)
	}
	if q.lastArgs[0] != "x" || len(q.lastArgs) != len(contactWritable)+1 {
		t.Errorf("update args = %v", q.lastArgs)
	}
}

func TestFeaturedUnsupported(t *testing.T) {
	r := New(&fakeQuerier{}, Skills)
	if _, err := r.ListFeatured(context.Background(), 6); err == nil {
		t.Error("skills should not support featured")
	}
	if _, err := r.ToggleFeatured(context.Background(), "x"); err == nil {
		t.Error("skills should not support featured toggle")
	}
}

func TestNew_KeyQueries(t *testing.T) {
	r := New(&fakeQuerier{}, Sections)
	if !strings.HasSuffix(r.getByKey, "FROM portfolio_sections WHERE section_name = $1") {
		t.Errorf("getByKey = %q", r.getByKey)
	}
	for _, want := range []string{
		"VALUES ($1, $2, $3, $4, $5, $6)",
		"ON CONFLICT (section_name) DO UPDATE SET title = EXCLUDED.title,",
		"display_order = EXCLUDED.display_order, updated_at = now() RETURNING id::text AS id",
	} {
		if !strings.Contains(r.upsert, want) {
			t.Errorf("upsert missing %q: %q", want, r.upsert)
		}
	}
	if strings.Contains(r.upsert, "section_name = EXCLUDED") {
		t.Errorf("upsert should not rewrite its key: %q", r.upsert)
	}
}

func TestUpsertByKey_Args(t *testing.T) {
	boom := errors.New("down")
	q := &fakeQuerier{queryErr: boom}
	r := New(q, Sections)
	s := &domain.Section{SectionName: "profile", Title: "Profile Image", Content: "https://x/me.png", IsVisible: true}
	if _, err := r.UpsertByKey(context.Background(), s); !errors.Is(err, boom) {
		t.Fatalf("UpsertByKey err = %v", err)
	}
	if len(q.lastArgs) != len(sectionWritable) || q.lastArgs[0] != "profile" || q.lastArgs[3] != "https://x/me.png" {
		t.Errorf("args = %v", q.lastArgs)
	}
	if _, err := r.GetByKey(context.Background(), "profile"); !errors.Is(err, boom) || q.lastArgs[0] != "profile" {
		t.Errorf("GetByKey err = %v args = %v", err, q.lastArgs)
	}
}

func TestKeyUnsupported(t *testing.T) {
	r := New(&fakeQuerier{}, Certifications)
	if _, err := r.GetByKey(context.Background(), "x"); err == nil {
		t.Error("certifications have no natural key")
	}
	if _, err := r.UpsertByKey(context.Background(), &domain.Certification{}); err == nil {
		t.Error("certifications upsert should fail")
	}
	if !strings.Contains(r.listPublic, "WHERE is_visible ORDER BY display_order, issue_date DESC") {
		t.Errorf("certifications public list = %q", r.listPublic)
	}
}
