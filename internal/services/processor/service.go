// Package processor implements the content processing behind the
// pipeline's processing stage: per-article summaries, keyword
// extraction, and cross-article keyword aggregation.
//
// When an LLM service is configured it produces summaries and keywords;
// any per-article LLM failure degrades to the extractive heuristic so a
// flaky AI backend never fails the run.
package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

const (
	summarySystemPrompt  = "You summarize research articles. Reply with a concise 2-3 sentence summary of the article, no preamble."
	keywordsSystemPrompt = "You extract keywords from research articles. Reply with at most five lowercase keywords as a comma-separated list, nothing else."
)

// Service implements the ContentProcessor interface.
type Service struct {
	llm    interfaces.LLMService // nil runs heuristic-only
	logger arbor.ILogger
}

// NewService creates a content processor. Passing a nil LLM service
// selects the heuristic-only path.
func NewService(llm interfaces.LLMService, logger arbor.ILogger) interfaces.ContentProcessor {
	return &Service{
		llm:    llm,
		logger: logger,
	}
}

// Summarize generates a short summary of the article.
func (s *Service) Summarize(ctx context.Context, article models.Article) (string, error) {
	if s.llm == nil {
		return heuristicSummary(article), nil
	}

	prompt := fmt.Sprintf("Title: %s\nSource: %s\nContent: %s", article.Title, article.Source, article.Snippet)
	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("title", article.Title).Msg("LLM summary failed, using extractive fallback")
		return heuristicSummary(article), nil
	}

	summary := strings.TrimSpace(response)
	if summary == "" {
		return heuristicSummary(article), nil
	}
	return summary, nil
}

// ExtractKeywords extracts salient keywords from the article.
func (s *Service) ExtractKeywords(ctx context.Context, article models.Article) ([]string, error) {
	if s.llm == nil {
		return heuristicKeywords(article), nil
	}

	prompt := fmt.Sprintf("Title: %s\nContent: %s", article.Title, article.Snippet)
	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: keywordsSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("title", article.Title).Msg("LLM keyword extraction failed, using extractive fallback")
		return heuristicKeywords(article), nil
	}

	keywords := parseKeywordList(response)
	if len(keywords) == 0 {
		return heuristicKeywords(article), nil
	}
	return keywords, nil
}

// TopKeywords aggregates keyword occurrences across articles.
func (s *Service) TopKeywords(keywords []string, limit int) []models.KeywordCount {
	return aggregateKeywords(keywords, limit)
}

// parseKeywordList parses a comma-separated LLM response into at most
// five normalized keywords.
func parseKeywordList(response string) []string {
	var keywords []string
	for _, part := range strings.Split(response, ",") {
		keyword := strings.ToLower(strings.TrimSpace(part))
		keyword = strings.Trim(keyword, ".\"'")
		if keyword == "" || contains(keywords, keyword) {
			continue
		}
		keywords = append(keywords, keyword)
		if len(keywords) >= 5 {
			break
		}
	}
	return keywords
}
