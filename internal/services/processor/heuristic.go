package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/scrutor/internal/models"
)

// techTerms are domain words promoted into the keyword list whenever
// they appear in an article, regardless of frequency.
var techTerms = []string{
	"ai", "artificial", "intelligence", "machine", "learning",
	"data", "algorithm", "technology", "system", "model",
}

// heuristicSummary builds an extractive summary from the article fields.
func heuristicSummary(article models.Article) string {
	parts := []string{
		fmt.Sprintf("Title: %s", article.Title),
		fmt.Sprintf("Source: %s", article.Source),
		fmt.Sprintf("Key Points: %s...", headRunes(article.Snippet, 150)),
		fmt.Sprintf("Relevance Score: %.2f", article.RelevanceScore),
	}
	return strings.Join(parts, "\n")
}

// heuristicKeywords extracts up to five keywords from the article: the
// most repeated words longer than three characters, topped up with any
// technical terms present in the content.
func heuristicKeywords(article models.Article) []string {
	content := strings.ToLower(article.Title + " " + article.Snippet)
	words := strings.Fields(content)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, word := range words {
		if len(word) > 3 {
			if _, ok := counts[word]; !ok {
				firstSeen[word] = i
			}
			counts[word]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for word := range counts {
		ranked = append(ranked, word)
	}
	// Frequency descending, first occurrence breaks ties
	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})

	keywords := make([]string, 0, 5)
	for _, word := range ranked {
		if len(keywords) >= 5 {
			break
		}
		if counts[word] > 1 {
			keywords = append(keywords, word)
		}
	}

	for _, term := range techTerms {
		if strings.Contains(content, term) && !contains(keywords, term) {
			keywords = append(keywords, term)
		}
	}

	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return keywords
}

// aggregateKeywords counts keyword occurrences and returns the most
// frequent, ordered by descending frequency with first occurrence
// breaking ties.
func aggregateKeywords(keywords []string, limit int) []models.KeywordCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, keyword := range keywords {
		if _, ok := counts[keyword]; !ok {
			firstSeen[keyword] = i
		}
		counts[keyword]++
	}

	ranked := make([]string, 0, len(counts))
	for keyword := range counts {
		ranked = append(ranked, keyword)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := make([]models.KeywordCount, 0, len(ranked))
	for _, keyword := range ranked {
		result = append(result, models.KeywordCount{
			Keyword:   keyword,
			Frequency: counts[keyword],
		})
	}
	return result
}

func headRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
