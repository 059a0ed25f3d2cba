package store

import (
	"context"
	"testing"
	"time"

	"github.com/valpere/uxtran/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSession()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Open_InvalidPath(t *testing.T) {
	_, err := open("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := newTestStore(t)
	b := newTestStore(t)

	if err := a.Remember(ctx, internal.Translate("en"), "로그인", "Login", ""); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	if _, _, ok, _ := b.Lookup(ctx, internal.Translate("en"), "로그인"); ok {
		t.Error("second session should not see the first session's memory")
	}
}

func TestStore_Memory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mode := internal.Translate("en")
	if _, _, ok, err := s.Lookup(ctx, mode, "로그인"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Remember(ctx, mode, "  로그인 ", "Login", ""); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}

	got, _, ok, err := s.Lookup(ctx, mode, "로그인")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got != "Login" {
		t.Errorf("expected Login, got %q", got)
	}

	if _, _, ok, _ := s.Lookup(ctx, internal.Translate("ja"), "로그인"); ok {
		t.Error("memory must be keyed by target language")
	}
	if _, _, ok, _ := s.Lookup(ctx, internal.Rewrite(), "로그인"); ok {
		t.Error("memory must be keyed by mode")
	}

	stats, err := s.MemoryStats(ctx)
	if err != nil {
		t.Fatalf("MemoryStats failed: %v", err)
	}
	if stats.Entries != 1 || stats.TotalUsage != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestStore_Memory_NFC(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// "é" precomposed vs. "e" + combining acute accent
	if err := s.Remember(ctx, internal.Rewrite(), "café", "Café menu", "clearer"); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	got, reason, ok, err := s.Lookup(ctx, internal.Rewrite(), "cafe\u0301")
	if err != nil || !ok {
		t.Fatalf("expected NFC-equivalent hit, got ok=%v err=%v", ok, err)
	}
	if got != "Café menu" || reason != "clearer" {
		t.Errorf("unexpected hit %q / %q", got, reason)
	}
}

func TestStore_ClearMemory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Remember(ctx, internal.Rewrite(), "a", "b", "")
	s.Remember(ctx, internal.Rewrite(), "c", "d", "")

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows removed, got %d", n)
	}
}

func TestStore_Glossary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.AddGlossaryTerm(ctx, "ko", "en", "회원가입", "Sign Up")
	if err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if _, err := s.AddGlossaryTerm(ctx, "KO", "EN", "장바구니", "Cart"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if _, err := s.AddGlossaryTerm(ctx, "ko", "ja", "회원가입", "会員登録"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}

	terms, err := s.Terms(ctx, "ko", "en")
	if err != nil {
		t.Fatalf("Terms failed: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(terms))
	}

	anySource, err := s.Terms(ctx, "", "ja")
	if err != nil {
		t.Fatalf("Terms failed: %v", err)
	}
	if len(anySource) != 1 || anySource[0].Target != "会員登録" {
		t.Errorf("unexpected terms %+v", anySource)
	}

	all, err := s.ListGlossaryTerms(ctx, "", "")
	if err != nil {
		t.Fatalf("ListGlossaryTerms failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d", len(all))
	}

	if err := s.DeleteGlossaryTerm(ctx, id); err != nil {
		t.Fatalf("DeleteGlossaryTerm failed: %v", err)
	}
	if err := s.DeleteGlossaryTerm(ctx, id); err == nil {
		t.Error("expected error deleting a missing term")
	}
}

func TestStore_Glossary_UnscopedTermMatchesDetectedSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddGlossaryTerm(ctx, "", "en", "회원가입", "Sign Up"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if _, err := s.AddGlossaryTerm(ctx, "ja", "en", "ログイン", "Log In"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}

	terms, err := s.Terms(ctx, "ko", "en")
	if err != nil {
		t.Fatalf("Terms failed: %v", err)
	}
	if len(terms) != 1 || terms[0].Target != "Sign Up" {
		t.Errorf("expected only the unscoped term, got %+v", terms)
	}
}

func TestStore_Glossary_RejectsEmpty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddGlossaryTerm(context.Background(), "ko", "en", " ", "x"); err == nil {
		t.Error("expected error for empty source term")
	}
}

func TestStore_Jobs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	start := time.Now().Add(-time.Minute)
	jobs := []Job{
		{ID: "j1", Mode: "translate", TargetLang: "en", Items: 25, Chunks: 3, StartedAt: start, FinishedAt: start.Add(time.Second)},
		{ID: "j2", Mode: "rewrite", Items: 2, Chunks: 1, Degraded: 2, Cancelled: true, StartedAt: start.Add(10 * time.Second), FinishedAt: start.Add(11 * time.Second)},
	}
	for _, j := range jobs {
		if err := s.RecordJob(ctx, j); err != nil {
			t.Fatalf("RecordJob failed: %v", err)
		}
	}

	got, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(got))
	}
	if got[0].ID != "j2" || !got[0].Cancelled || got[0].Degraded != 2 {
		t.Errorf("unexpected newest job %+v", got[0])
	}
	if got[1].Items != 25 || got[1].Chunks != 3 {
		t.Errorf("unexpected oldest job %+v", got[1])
	}
}
