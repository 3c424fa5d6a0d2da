package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := openStore(t)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
}

func TestRecordAttemptsAndSummary(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	attempts := []Attempt{
		{SessionID: "s1", Kind: "generate", Topic: "Arrays/Two pointers", Outcome: "passed", Message: "3 problems", TS: base},
		{SessionID: "s1", Kind: "run", ProblemID: "p1", Language: "python", Outcome: "failed", DurationMS: 120, TS: base.Add(time.Minute)},
		{SessionID: "s1", Kind: "submit", ProblemID: "p1", Language: "python", Outcome: "failed", TS: base.Add(2 * time.Minute)},
		{SessionID: "s1", Kind: "submit", ProblemID: "p1", Language: "java", Outcome: "passed", TS: base.Add(3 * time.Minute)},
		{SessionID: "s1", Kind: "submit", ProblemID: "p2", Language: "python", Outcome: "error", Message: "sandbox unavailable", TS: base.Add(4 * time.Minute)},
	}
	for _, a := range attempts {
		if err := store.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("record %s: %v", a.Kind, err)
		}
	}

	summary, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := Summary{Generates: 1, Runs: 1, Submissions: 3, Accepted: 1, Errors: 1}
	if summary != want {
		t.Fatalf("expected %+v, got %+v", want, summary)
	}

	recent, err := store.RecentAttempts(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ProblemID != "p2" || recent[0].Message != "sandbox unavailable" {
		t.Fatalf("unexpected recent attempts %+v", recent)
	}
	if !recent[1].TS.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("unexpected timestamp %v", recent[1].TS)
	}
}

func TestProblemProgressOnlyCountsGradedSubmissions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	passAt := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

	for _, a := range []Attempt{
		{Kind: "run", ProblemID: "p1", Outcome: "passed"},
		{Kind: "submit", ProblemID: "p1", Language: "python", Outcome: "passed", TS: passAt},
		{Kind: "submit", ProblemID: "p1", Language: "c++", Outcome: "failed", TS: passAt.Add(time.Hour)},
		{Kind: "submit", ProblemID: "p2", Outcome: "error"},
	} {
		if err := store.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	progress, err := store.GetProblemProgressMap(ctx)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if _, ok := progress["p2"]; ok {
		t.Fatalf("errored submissions must not create progress")
	}
	p1 := progress["p1"]
	if p1.Submissions != 2 || p1.PassedCount != 1 || p1.LastLanguage != "c++" {
		t.Fatalf("unexpected progress %+v", p1)
	}
	if !p1.LastPassedTS.Equal(passAt) {
		t.Fatalf("a later failure must keep the last pass time, got %v", p1.LastPassedTS)
	}
}

func TestRecordAttemptRequiresKind(t *testing.T) {
	store := openStore(t)
	if err := store.RecordAttempt(context.Background(), Attempt{Outcome: "passed"}); err == nil {
		t.Fatalf("expected error for empty kind")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.SaveSettings(ctx, map[string]string{SettingLanguage: "java", SettingTopic: "BFS"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{SettingLanguage: "c++", " ": "ignored"}); err != nil {
		t.Fatalf("save update: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[SettingLanguage] != "c++" || got[SettingTopic] != "BFS" || len(got) != 2 {
		t.Fatalf("unexpected settings %+v", got)
	}
}
