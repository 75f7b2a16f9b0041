package sources

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// DefaultWebSearchBaseURL is the base URL for the DuckDuckGo HTML endpoint.
const DefaultWebSearchBaseURL = "https://html.duckduckgo.com"

// WebSearchSource is the general web-search fallback used when the
// dedicated sources return nothing. It scrapes the DuckDuckGo HTML
// results page.
type WebSearchSource struct {
	client     *client
	maxResults int
}

// NewWebSearchSource creates the web-search fallback source.
func NewWebSearchSource(maxResults int, opts ...Option) interfaces.ArticleSource {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &WebSearchSource{
		client:     newClient(DefaultWebSearchBaseURL, opts...),
		maxResults: maxResults,
	}
}

func (s *WebSearchSource) Name() string {
	return "websearch"
}

func (s *WebSearchSource) Fetch(ctx context.Context, topic string) []models.Article {
	params := url.Values{}
	params.Set("q", topic)

	body, err := s.client.get(ctx, "/html/", params)
	if err != nil {
		s.client.warn(err, s.Name(), topic)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.client.warn(err, s.Name(), topic)
		return nil
	}

	var articles []models.Article
	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(articles) >= s.maxResults {
			return false
		}

		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}

		snippet := strings.TrimSpace(sel.Find("a.result__snippet").First().Text())
		if snippet == "" {
			snippet = strings.TrimSpace(sel.Find("div.result__snippet").First().Text())
		}

		articles = append(articles, models.Article{
			Title:   title,
			URL:     href,
			Snippet: snippet,
			Source:  extractSource(href),
			// Results arrive ranked; decay the score with position
			RelevanceScore: 0.75 - float64(len(articles))*0.01,
		})
		return true
	})

	return articles
}
