package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/pipeline"
	"github.com/ternarybob/scrutor/internal/services/processor"
)

// memStore is an in-memory ResearchStore for scheduler tests.
type memStore struct {
	mu   sync.Mutex
	runs map[string]*models.ResearchRun
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*models.ResearchRun)}
}

func (m *memStore) UpsertRun(ctx context.Context, run *models.ResearchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *memStore) AppendStep(ctx context.Context, runID string, step models.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return interfaces.ErrRunNotFound
	}
	for i := range run.Steps {
		if run.Steps[i].ID == step.ID {
			run.Steps[i] = step
			return nil
		}
	}
	run.Steps = append(run.Steps, step)
	return nil
}

func (m *memStore) GetRun(ctx context.Context, runID string) (*models.ResearchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, interfaces.ErrRunNotFound
	}
	clone := *run
	return &clone, nil
}

func (m *memStore) ListRuns(ctx context.Context) ([]*models.ResearchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []*models.ResearchRun
	for _, run := range m.runs {
		clone := *run
		runs = append(runs, &clone)
	}
	return runs, nil
}

func (m *memStore) DeleteRun(ctx context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return interfaces.ErrRunNotFound
	}
	delete(m.runs, runID)
	return nil
}

func (m *memStore) DeleteAllRuns(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := len(m.runs)
	m.runs = make(map[string]*models.ResearchRun)
	return count, nil
}

// fastSource returns one article immediately.
type fastSource struct{}

func (f *fastSource) Name() string { return "wikipedia" }

func (f *fastSource) Fetch(ctx context.Context, topic string) []models.Article {
	return []models.Article{{
		Title:          "Test Article",
		URL:            "https://example.com/a",
		Snippet:        "Snippet about the topic and the technology behind it.",
		Source:         "Wikipedia",
		RelevanceScore: 0.9,
	}}
}

// blockingSource blocks until the context is cancelled.
type blockingSource struct{}

func (b *blockingSource) Name() string { return "wikipedia" }

func (b *blockingSource) Fetch(ctx context.Context, topic string) []models.Article {
	<-ctx.Done()
	return nil
}

func newTestScheduler(t *testing.T, store interfaces.ResearchStore, source interfaces.ArticleSource) *Scheduler {
	t.Helper()
	logger := arbor.NewLogger()
	engine := pipeline.NewEngine(store, []interfaces.ArticleSource{source}, nil,
		processor.NewService(nil, logger), logger, pipeline.Options{})
	s := NewScheduler(store, engine, 2, 0, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s
}

func waitForStatus(t *testing.T, s *Scheduler, jobID string, want func(models.ResearchStatus) bool) *models.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snapshot, err := s.Status(jobID)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if want(snapshot.Job.Status) {
			return snapshot
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach wanted status", jobID)
	return nil
}

// waitForRun polls until the persisted run reaches the wanted status.
// The job status can move ahead of the run (optimistic cancel mark), so
// assertions on the stored run must wait on the run itself.
func waitForRun(t *testing.T, s *Scheduler, jobID string, want func(models.ResearchStatus) bool) *models.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snapshot, err := s.Status(jobID)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if snapshot.Run != nil && want(snapshot.Run.Status) {
			return snapshot
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach wanted status", jobID)
	return nil
}

func TestStartAndComplete(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(t, store, &fastSource{})

	jobID, err := s.Start(context.Background(), "quantum computing")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if jobID == "" {
		t.Fatal("empty job ID")
	}

	snapshot := waitForStatus(t, s, jobID, models.ResearchStatus.IsTerminal)

	if snapshot.Job.Status != models.ResearchStatusCompleted {
		t.Errorf("job status = %q, want completed", snapshot.Job.Status)
	}
	if snapshot.Job.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if snapshot.Progress.Current != 5 || snapshot.Progress.Total != 5 {
		t.Errorf("progress = %+v, want 5/5", snapshot.Progress)
	}
	if snapshot.Progress.Percent != 100 {
		t.Errorf("percent = %v, want 100", snapshot.Progress.Percent)
	}
	if snapshot.Run == nil || snapshot.Run.Status != models.ResearchStatusCompleted {
		t.Errorf("run = %+v", snapshot.Run)
	}
}

func TestStart_EmptyTopic(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	if _, err := s.Start(context.Background(), "   "); !errors.Is(err, interfaces.ErrInvalidTopic) {
		t.Errorf("Start() error = %v, want ErrInvalidTopic", err)
	}
}

func TestStart_ShortTopicFailsInPipeline(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	jobID, err := s.Start(context.Background(), "ab")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	snapshot := waitForStatus(t, s, jobID, models.ResearchStatus.IsTerminal)

	if snapshot.Job.Status != models.ResearchStatusFailed {
		t.Errorf("job status = %q, want failed", snapshot.Job.Status)
	}
	if snapshot.Job.Error != "Topic must be at least 3 characters long" {
		t.Errorf("job error = %q", snapshot.Job.Error)
	}
	if snapshot.Run == nil || len(snapshot.Run.Steps) != 1 {
		t.Errorf("run should carry exactly one failed step: %+v", snapshot.Run)
	}
}

func TestStatus_Unknown(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	if _, err := s.Status("run_missing"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("Status() error = %v, want ErrJobNotFound", err)
	}
}

func TestCancelRunningJob(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(t, store, &blockingSource{})

	jobID, err := s.Start(context.Background(), "long running topic")
	if err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, s, jobID, func(st models.ResearchStatus) bool {
		return st == models.ResearchStatusInProgress
	})

	result, err := s.Cancel(jobID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !result.Cancelled || result.Status != models.ResearchStatusCancelled {
		t.Errorf("result = %+v", result)
	}

	// The cancel mark on the job is optimistic; wait for the pipeline
	// goroutine to persist the run's own terminal status.
	snapshot := waitForRun(t, s, jobID, models.ResearchStatus.IsTerminal)
	if snapshot.Job.Status != models.ResearchStatusCancelled {
		t.Errorf("job status = %q, want cancelled", snapshot.Job.Status)
	}
	if snapshot.Run.Status != models.ResearchStatusCancelled {
		t.Errorf("run = %+v, want persisted cancelled run", snapshot.Run)
	}
}

func TestCancelTerminalJobIsNoOp(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	jobID, _ := s.Start(context.Background(), "quick topic")
	waitForStatus(t, s, jobID, models.ResearchStatus.IsTerminal)

	result, err := s.Cancel(jobID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if result.Cancelled {
		t.Error("Cancelled = true, want no-op on terminal job")
	}
	if result.Status != models.ResearchStatusCompleted {
		t.Errorf("Status = %q, want the actual terminal status", result.Status)
	}
}

func TestCancel_Unknown(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	if _, err := s.Cancel("run_missing"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("Cancel() error = %v, want ErrJobNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(t, store, &fastSource{})

	jobID, _ := s.Start(context.Background(), "topic to delete")
	waitForStatus(t, s, jobID, models.ResearchStatus.IsTerminal)

	if err := s.Delete(jobID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Status(jobID); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("Status() after delete error = %v, want ErrJobNotFound", err)
	}
	if _, err := store.GetRun(context.Background(), jobID); !errors.Is(err, interfaces.ErrRunNotFound) {
		t.Errorf("run still in store after delete")
	}
}

func TestDelete_Unknown(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	if err := s.Delete("run_missing"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("Delete() error = %v, want ErrJobNotFound", err)
	}
}

func TestDeleteAll(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(t, store, &fastSource{})

	id1, _ := s.Start(context.Background(), "first topic")
	id2, _ := s.Start(context.Background(), "second topic")
	waitForStatus(t, s, id1, models.ResearchStatus.IsTerminal)
	waitForStatus(t, s, id2, models.ResearchStatus.IsTerminal)

	count, err := s.DeleteAll()
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if _, err := s.Status(id1); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("job survived DeleteAll")
	}
}

func TestPruneTerminal(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	jobID, _ := s.Start(context.Background(), "old finished topic")
	waitForStatus(t, s, jobID, models.ResearchStatus.IsTerminal)

	// Fresh terminal jobs survive
	if pruned := s.pruneTerminal(time.Hour); pruned != 0 {
		t.Errorf("pruned = %d, want 0 for fresh job", pruned)
	}

	// Backdate and prune
	s.mu.Lock()
	old := time.Now().Add(-2 * time.Hour)
	s.jobs[jobID].job.CompletedAt = &old
	s.mu.Unlock()

	if pruned := s.pruneTerminal(time.Hour); pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if _, err := s.Status(jobID); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("pruned job still visible")
	}
}

func TestJanitorSchedule(t *testing.T) {
	s := newTestScheduler(t, newMemStore(), &fastSource{})

	janitor, err := NewJanitor(s, "*/10 * * * *", time.Hour, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewJanitor() error = %v", err)
	}
	janitor.Start()
	janitor.Stop()

	if _, err := NewJanitor(s, "not a schedule", time.Hour, arbor.NewLogger()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
