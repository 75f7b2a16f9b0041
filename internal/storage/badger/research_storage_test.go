package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestStorage(t *testing.T) interfaces.ResearchStore {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return NewResearchStorage(db, arbor.NewLogger())
}

func TestUpsertAndGetRun(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	run := models.NewResearchRun("run_1", "quantum computing")
	run.AppendTrace("STEP 1: Validating input topic: 'quantum computing'")

	if err := storage.UpsertRun(ctx, run); err != nil {
		t.Fatalf("UpsertRun() error = %v", err)
	}

	got, err := storage.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Topic != "quantum computing" {
		t.Errorf("Topic = %q", got.Topic)
	}
	if got.Status != models.ResearchStatusPending {
		t.Errorf("Status = %q", got.Status)
	}
	if len(got.TraceLog) != 1 {
		t.Errorf("TraceLog length = %d, want 1", len(got.TraceLog))
	}

	// Upsert replaces
	run.Status = models.ResearchStatusInProgress
	if err := storage.UpsertRun(ctx, run); err != nil {
		t.Fatalf("UpsertRun() error = %v", err)
	}
	got, err = storage.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ResearchStatusInProgress {
		t.Errorf("Status after upsert = %q, want in_progress", got.Status)
	}
}

func TestUpsertRun_RequiresID(t *testing.T) {
	storage := newTestStorage(t)

	run := models.NewResearchRun("", "topic")
	if err := storage.UpsertRun(context.Background(), run); err == nil {
		t.Fatal("expected error for empty run ID")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetRun(context.Background(), "run_missing")
	if !errors.Is(err, interfaces.ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestAppendStep_AppendAndReplace(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	run := models.NewResearchRun("run_1", "ai safety")
	if err := storage.UpsertRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	step := models.Step{
		ID:          "step_1",
		Kind:        models.StepKindInput,
		Description: "Validate and prepare the research topic",
		Status:      models.ResearchStatusInProgress,
		Timestamp:   time.Now(),
	}
	if err := storage.AppendStep(ctx, "run_1", step); err != nil {
		t.Fatalf("AppendStep() error = %v", err)
	}

	// Re-persist same step ID with final status: replace, not append
	step.MarkCompleted(map[string]interface{}{"validation_passed": true}, time.Second)
	if err := storage.AppendStep(ctx, "run_1", step); err != nil {
		t.Fatalf("AppendStep() error = %v", err)
	}

	got, err := storage.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Steps) != 1 {
		t.Fatalf("Steps length = %d, want 1", len(got.Steps))
	}
	if got.Steps[0].Status != models.ResearchStatusCompleted {
		t.Errorf("Step status = %q, want completed", got.Steps[0].Status)
	}

	// A different step ID appends
	step2 := models.Step{ID: "step_2", Kind: models.StepKindGather, Status: models.ResearchStatusInProgress, Timestamp: time.Now()}
	if err := storage.AppendStep(ctx, "run_1", step2); err != nil {
		t.Fatal(err)
	}
	got, _ = storage.GetRun(ctx, "run_1")
	if len(got.Steps) != 2 {
		t.Fatalf("Steps length = %d, want 2", len(got.Steps))
	}
}

func TestAppendStep_RunNotFound(t *testing.T) {
	storage := newTestStorage(t)

	err := storage.AppendStep(context.Background(), "run_missing", models.Step{ID: "step_1"})
	if !errors.Is(err, interfaces.ErrRunNotFound) {
		t.Errorf("AppendStep() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	older := models.NewResearchRun("run_old", "first topic")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := models.NewResearchRun("run_new", "second topic")

	if err := storage.UpsertRun(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := storage.UpsertRun(ctx, newer); err != nil {
		t.Fatal(err)
	}

	runs, err := storage.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() length = %d, want 2", len(runs))
	}
	if runs[0].ID != "run_new" {
		t.Errorf("first run = %q, want run_new", runs[0].ID)
	}
}

func TestDeleteRun(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	run := models.NewResearchRun("run_1", "topic")
	if err := storage.UpsertRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	if err := storage.DeleteRun(ctx, "run_1"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	if _, err := storage.GetRun(ctx, "run_1"); !errors.Is(err, interfaces.ErrRunNotFound) {
		t.Errorf("GetRun() after delete error = %v, want ErrRunNotFound", err)
	}

	if err := storage.DeleteRun(ctx, "run_1"); !errors.Is(err, interfaces.ErrRunNotFound) {
		t.Errorf("DeleteRun() twice error = %v, want ErrRunNotFound", err)
	}
}

func TestDeleteAllRuns(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"run_1", "run_2", "run_3"} {
		if err := storage.UpsertRun(ctx, models.NewResearchRun(id, "topic")); err != nil {
			t.Fatal(err)
		}
	}

	count, err := storage.DeleteAllRuns(ctx)
	if err != nil {
		t.Fatalf("DeleteAllRuns() error = %v", err)
	}
	if count != 3 {
		t.Errorf("DeleteAllRuns() count = %d, want 3", count)
	}

	runs, err := storage.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("ListRuns() after delete all = %d, want 0", len(runs))
	}
}

func TestRunPersistsResultSet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	run := models.NewResearchRun("run_1", "go concurrency")
	run.Results = models.ResultSet{
		RawArticles: []models.Article{
			{Title: "Go Concurrency Patterns", URL: "https://example.com/1", Source: "wikipedia", RelevanceScore: 0.9},
		},
		SourceCounts:  map[string]int{"wikipedia": 1},
		TotalArticles: 1,
		ProcessedArticles: []models.ProcessedArticle{
			{Rank: 1, Title: "Go Concurrency Patterns", Summary: "summary", Keywords: []string{"goroutine", "channel"}},
		},
		TopKeywords:         []models.KeywordCount{{Keyword: "goroutine", Frequency: 2}},
		ProcessingCompleted: true,
	}

	if err := storage.UpsertRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	got, err := storage.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Results.TotalArticles != 1 {
		t.Errorf("TotalArticles = %d, want 1", got.Results.TotalArticles)
	}
	if got.Results.SourceCounts["wikipedia"] != 1 {
		t.Errorf("SourceCounts = %v", got.Results.SourceCounts)
	}
	if len(got.Results.ProcessedArticles) != 1 || got.Results.ProcessedArticles[0].Rank != 1 {
		t.Errorf("ProcessedArticles = %v", got.Results.ProcessedArticles)
	}
	if !got.Results.ProcessingCompleted {
		t.Error("ProcessingCompleted = false, want true")
	}
}
