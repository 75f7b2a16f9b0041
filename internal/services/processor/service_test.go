package processor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Close() error                          { return nil }

var testArticle = models.Article{
	Title:          "Machine Learning Advances",
	URL:            "https://example.com/ml",
	Snippet:        "Machine learning systems are learning from data. Learning models improve with data and data pipelines.",
	Source:         "Tech News",
	RelevanceScore: 0.85,
}

func TestSummarize_HeuristicOnly(t *testing.T) {
	service := NewService(nil, arbor.NewLogger())

	summary, err := service.Summarize(context.Background(), testArticle)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	lines := strings.Split(summary, "\n")
	if len(lines) != 4 {
		t.Fatalf("summary lines = %d, want 4:\n%s", len(lines), summary)
	}
	if lines[0] != "Title: Machine Learning Advances" {
		t.Errorf("line 1 = %q", lines[0])
	}
	if lines[1] != "Source: Tech News" {
		t.Errorf("line 2 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Key Points: ") || !strings.HasSuffix(lines[2], "...") {
		t.Errorf("line 3 = %q", lines[2])
	}
	if lines[3] != "Relevance Score: 0.85" {
		t.Errorf("line 4 = %q", lines[3])
	}
}

func TestSummarize_UsesLLM(t *testing.T) {
	llm := &fakeLLM{response: "A concise summary of ML advances."}
	service := NewService(llm, arbor.NewLogger())

	summary, err := service.Summarize(context.Background(), testArticle)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "A concise summary of ML advances." {
		t.Errorf("summary = %q", summary)
	}
}

func TestSummarize_LLMFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	service := NewService(llm, arbor.NewLogger())

	summary, err := service.Summarize(context.Background(), testArticle)
	if err != nil {
		t.Fatalf("Summarize() error = %v, want fallback instead", err)
	}
	if !strings.HasPrefix(summary, "Title: Machine Learning Advances") {
		t.Errorf("summary = %q, want heuristic fallback", summary)
	}
}

func TestExtractKeywords_Heuristic(t *testing.T) {
	service := NewService(nil, arbor.NewLogger())

	keywords, err := service.ExtractKeywords(context.Background(), testArticle)
	if err != nil {
		t.Fatalf("ExtractKeywords() error = %v", err)
	}
	if len(keywords) == 0 || len(keywords) > 5 {
		t.Fatalf("keywords = %v, want 1-5 entries", keywords)
	}

	// "learning" and "data" repeat in the content, so they must rank
	found := map[string]bool{}
	for _, k := range keywords {
		found[k] = true
	}
	if !found["learning"] {
		t.Errorf("keywords = %v, want to include %q", keywords, "learning")
	}
	if !found["data"] {
		t.Errorf("keywords = %v, want to include %q", keywords, "data")
	}
}

func TestExtractKeywords_TechTermsPromoted(t *testing.T) {
	service := NewService(nil, arbor.NewLogger())

	article := models.Article{
		Title:   "New algorithm announced",
		Snippet: "A short note.",
	}
	keywords, err := service.ExtractKeywords(context.Background(), article)
	if err != nil {
		t.Fatal(err)
	}
	if !contains(keywords, "algorithm") {
		t.Errorf("keywords = %v, want to include %q", keywords, "algorithm")
	}
}

func TestExtractKeywords_UsesLLMResponse(t *testing.T) {
	llm := &fakeLLM{response: "Neural Networks, training, GPUs, , training"}
	service := NewService(llm, arbor.NewLogger())

	keywords, err := service.ExtractKeywords(context.Background(), testArticle)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"neural networks", "training", "gpus"}
	if len(keywords) != len(want) {
		t.Fatalf("keywords = %v, want %v", keywords, want)
	}
	for i := range want {
		if keywords[i] != want[i] {
			t.Errorf("keywords[%d] = %q, want %q", i, keywords[i], want[i])
		}
	}
}

func TestTopKeywords_OrderAndLimit(t *testing.T) {
	service := NewService(nil, arbor.NewLogger())

	all := []string{"ai", "data", "ai", "model", "data", "ai", "cloud"}
	top := service.TopKeywords(all, 3)

	if len(top) != 3 {
		t.Fatalf("top length = %d, want 3", len(top))
	}
	if top[0].Keyword != "ai" || top[0].Frequency != 3 {
		t.Errorf("top[0] = %+v", top[0])
	}
	if top[1].Keyword != "data" || top[1].Frequency != 2 {
		t.Errorf("top[1] = %+v", top[1])
	}
	// Tie between "model" and "cloud" resolves by first occurrence
	if top[2].Keyword != "model" || top[2].Frequency != 1 {
		t.Errorf("top[2] = %+v", top[2])
	}
}

func TestTopKeywords_Empty(t *testing.T) {
	service := NewService(nil, arbor.NewLogger())

	if top := service.TopKeywords(nil, 10); len(top) != 0 {
		t.Errorf("top = %v, want empty", top)
	}
}
