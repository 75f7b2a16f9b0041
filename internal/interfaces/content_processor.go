package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// ContentProcessor produces summaries and keywords for gathered articles
type ContentProcessor interface {
	// Summarize generates a short summary of the article
	Summarize(ctx context.Context, article models.Article) (string, error)

	// ExtractKeywords extracts salient keywords from the article
	ExtractKeywords(ctx context.Context, article models.Article) ([]string, error)

	// TopKeywords aggregates keyword occurrences across articles and
	// returns the most frequent, ordered by descending frequency
	TopKeywords(keywords []string, limit int) []models.KeywordCount
}
