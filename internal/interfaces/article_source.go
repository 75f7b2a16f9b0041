package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// ArticleSource fetches candidate articles for a research topic.
//
// Implementations never return an error: a source that fails (network,
// parse, upstream outage) logs a warning and returns an empty slice so
// the gather stage degrades instead of aborting.
type ArticleSource interface {
	// Name returns the source identifier used in per-source counts
	// (e.g. "wikipedia", "news", "hackernews")
	Name() string

	// Fetch returns articles relevant to the topic, empty on failure
	Fetch(ctx context.Context, topic string) []models.Article
}
