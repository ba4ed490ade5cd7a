package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type purgeRepo struct {
	mockAuditRepo
	before time.Time
	calls  int
	n      int64
	err    error
}

func (r *purgeRepo) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.calls++
	r.before = before
	return r.n, r.err
}

func TestPurger_Purge(t *testing.T) {
	repo := &purgeRepo{n: 7}
	p := NewPurger(repo, 30, nil)
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	n, err := p.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 7 {
		t.Errorf("deleted = %d, want 7", n)
	}
	if want := now.AddDate(0, 0, -30); !repo.before.Equal(want) {
		t.Errorf("cutoff = %v, want %v", repo.before, want)
	}
}

func TestPurger_Disabled(t *testing.T) {
	repo := &purgeRepo{}
	if _, err := NewPurger(repo, 0, nil).Purge(context.Background()); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if repo.calls != 0 {
		t.Error("zero retention should not purge")
	}
	if _, err := NewPurger(nil, 30, nil).Purge(context.Background()); err != nil {
		t.Fatalf("nil repo: %v", err)
	}
}

func TestPurger_Error(t *testing.T) {
	repo := &purgeRepo{err: errors.New("db down")}
	p := NewPurger(repo, 7, nil)
	if _, err := p.Purge(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	p.Run()
	if repo.calls != 2 {
		t.Errorf("calls = %d, want 2", repo.calls)
	}
}
