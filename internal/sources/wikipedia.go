package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// DefaultWikipediaBaseURL is the base URL for the Wikipedia APIs.
const DefaultWikipediaBaseURL = "https://en.wikipedia.org"

// WikipediaSource fetches articles from the Wikipedia REST summary API,
// falling back to the search API when no direct page exists.
type WikipediaSource struct {
	client *client
}

// NewWikipediaSource creates a Wikipedia article source.
func NewWikipediaSource(opts ...Option) interfaces.ArticleSource {
	return &WikipediaSource{
		client: newClient(DefaultWikipediaBaseURL, opts...),
	}
}

func (s *WikipediaSource) Name() string {
	return "wikipedia"
}

type wikipediaSummary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

type wikipediaSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

func (s *WikipediaSource) Fetch(ctx context.Context, topic string) []models.Article {
	// Direct page summary first
	var summary wikipediaSummary
	path := "/api/rest_v1/page/summary/" + url.PathEscape(topic)
	if err := s.client.getJSON(ctx, path, nil, &summary); err == nil &&
		summary.Title != "" && summary.Extract != "" {
		return []models.Article{{
			Title:          summary.Title,
			URL:            summary.ContentURLs.Desktop.Page,
			Snippet:        truncateSnippet(summary.Extract, 200),
			Source:         "Wikipedia",
			RelevanceScore: 0.9,
		}}
	}

	// Fallback to the search API
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", topic)
	params.Set("srlimit", "3")

	var search wikipediaSearchResponse
	if err := s.client.getJSON(ctx, "/w/api.php", params, &search); err != nil {
		s.client.warn(err, s.Name(), topic)
		return nil
	}

	articles := make([]models.Article, 0, len(search.Query.Search))
	for i, item := range search.Query.Search {
		if i >= 3 {
			break
		}
		articles = append(articles, models.Article{
			Title:          item.Title,
			URL:            fmt.Sprintf("https://en.wikipedia.org/wiki/%s", url.PathEscape(item.Title)),
			Snippet:        item.Snippet,
			Source:         "Wikipedia",
			RelevanceScore: 0.8,
		})
	}
	return articles
}
