package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// DefaultHackerNewsBaseURL is the base URL for the HN Algolia search API.
const DefaultHackerNewsBaseURL = "https://hn.algolia.com"

// HackerNewsSource fetches stories from the HackerNews Algolia API.
type HackerNewsSource struct {
	client *client
}

// NewHackerNewsSource creates a HackerNews article source.
func NewHackerNewsSource(opts ...Option) interfaces.ArticleSource {
	return &HackerNewsSource{
		client: newClient(DefaultHackerNewsBaseURL, opts...),
	}
}

func (s *HackerNewsSource) Name() string {
	return "hackernews"
}

type hackerNewsResponse struct {
	Hits []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		ObjectID    string `json:"objectID"`
		StoryText   string `json:"story_text"`
		CommentText string `json:"comment_text"`
	} `json:"hits"`
}

func (s *HackerNewsSource) Fetch(ctx context.Context, topic string) []models.Article {
	params := url.Values{}
	params.Set("query", topic)
	params.Set("tags", "story")
	params.Set("hitsPerPage", "5")

	var response hackerNewsResponse
	if err := s.client.getJSON(ctx, "/api/v1/search", params, &response); err != nil {
		s.client.warn(err, s.Name(), topic)
		return nil
	}

	articles := make([]models.Article, 0, len(response.Hits))
	for i, hit := range response.Hits {
		if i >= 5 {
			break
		}
		storyURL := hit.URL
		if storyURL == "" {
			storyURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%s", hit.ObjectID)
		}
		text := hit.StoryText
		if text == "" {
			text = hit.CommentText
		}
		articles = append(articles, models.Article{
			Title:          hit.Title,
			URL:            storyURL,
			Snippet:        truncateSnippet(text, 200),
			Source:         "HackerNews",
			RelevanceScore: 0.7,
		})
	}
	return articles
}
