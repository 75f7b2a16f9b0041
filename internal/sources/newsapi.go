package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// DefaultNewsAPIBaseURL is the base URL for NewsAPI.
const DefaultNewsAPIBaseURL = "https://newsapi.org"

// NewsSource fetches articles from NewsAPI. Without an API key it serves
// deterministic mock articles so the pipeline stays demonstrable offline.
type NewsSource struct {
	client *client
	apiKey string
}

// NewNewsSource creates a NewsAPI article source.
func NewNewsSource(apiKey string, opts ...Option) interfaces.ArticleSource {
	return &NewsSource{
		client: newClient(DefaultNewsAPIBaseURL, opts...),
		apiKey: apiKey,
	}
}

func (s *NewsSource) Name() string {
	return "news"
}

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Content     string `json:"content"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (s *NewsSource) Fetch(ctx context.Context, topic string) []models.Article {
	if s.apiKey == "" {
		return s.mockArticles(topic)
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("apiKey", s.apiKey)
	params.Set("pageSize", "5")
	params.Set("sortBy", "relevancy")

	var response newsAPIResponse
	if err := s.client.getJSON(ctx, "/v2/everything", params, &response); err != nil {
		s.client.warn(err, s.Name(), topic)
		return s.mockArticles(topic)
	}

	articles := make([]models.Article, 0, len(response.Articles))
	for i, item := range response.Articles {
		if i >= 5 {
			break
		}
		snippet := item.Description
		if snippet == "" {
			snippet = truncateSnippet(item.Content, 200)
		}
		articles = append(articles, models.Article{
			Title:          item.Title,
			URL:            item.URL,
			Snippet:        snippet,
			Source:         item.Source.Name,
			RelevanceScore: 0.85,
		})
	}
	return articles
}

func (s *NewsSource) mockArticles(topic string) []models.Article {
	slug := strings.ReplaceAll(topic, " ", "-")
	return []models.Article{
		{
			Title:          fmt.Sprintf("Latest News: %s", topic),
			URL:            fmt.Sprintf("https://news.example.com/%s", slug),
			Snippet:        fmt.Sprintf("Breaking news about %s and its impact on the industry.", topic),
			Source:         "Tech News",
			RelevanceScore: 0.8,
		},
		{
			Title:          fmt.Sprintf("%s Trends in 2024", topic),
			URL:            fmt.Sprintf("https://trends.example.com/%s", slug),
			Snippet:        fmt.Sprintf("Analysis of current trends and developments in %s.", topic),
			Source:         "Industry Report",
			RelevanceScore: 0.75,
		},
	}
}
