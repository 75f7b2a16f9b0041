package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/scrutor/internal/models"
)

// stageInput validates and normalizes the topic, then stores the run.
func (e *Engine) stageInput(ctx context.Context, run *models.ResearchRun, stepNumber int) (map[string]interface{}, error) {
	topic := strings.TrimSpace(run.Topic)
	if len(topic) < 3 {
		return nil, fmt.Errorf("Topic must be at least 3 characters long")
	}

	run.Topic = topic
	if err := e.persistRun(ctx, run); err != nil {
		return nil, err
	}

	run.AppendTrace(fmt.Sprintf("STEP %d: Input validated and stored in DB - Topic: '%s'", stepNumber, topic))

	return map[string]interface{}{
		"validated_topic":   topic,
		"topic_length":      len(topic),
		"validation_passed": true,
	}, nil
}

// stageGather queries every configured source and accumulates the raw
// articles on the blackboard. When all sources come back empty, the
// general web-search fallback is tried.
func (e *Engine) stageGather(ctx context.Context, run *models.ResearchRun, stepNumber int) (map[string]interface{}, error) {
	var allArticles []models.Article
	sourceCounts := make(map[string]int)
	output := map[string]interface{}{}

	for _, source := range e.sources {
		articles := source.Fetch(ctx, run.Topic)
		allArticles = append(allArticles, articles...)
		sourceCounts[source.Name()] = len(articles)
		output[source.Name()+"_articles"] = len(articles)

		e.logger.Debug().
			Str("run_id", run.ID).
			Str("source", source.Name()).
			Int("articles", len(articles)).
			Msg("Source fetch finished")
	}

	if len(allArticles) == 0 && e.fallback != nil {
		articles := e.fallback.Fetch(ctx, run.Topic)
		allArticles = append(allArticles, articles...)
		sourceCounts[e.fallback.Name()] = len(articles)
		output[e.fallback.Name()+"_articles"] = len(articles)
	}

	run.Results.RawArticles = allArticles
	run.Results.SourceCounts = sourceCounts
	run.Results.TotalArticles = len(allArticles)

	output["total_articles_found"] = len(allArticles)

	run.AppendTrace(fmt.Sprintf("STEP %d: Gathered %d articles from multiple sources", stepNumber, len(allArticles)))

	return output, nil
}

// stageProcess ranks the gathered articles, summarizes and extracts
// keywords for the top ones, and aggregates keywords across them.
func (e *Engine) stageProcess(ctx context.Context, run *models.ResearchRun, stepNumber int) (map[string]interface{}, error) {
	raw := run.Results.RawArticles
	if len(raw) == 0 {
		return nil, fmt.Errorf("No articles found to process")
	}

	// Highest relevance first; stable keeps source ordering for ties
	ranked := make([]models.Article, len(raw))
	copy(ranked, raw)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	if len(ranked) > e.opts.TopArticles {
		ranked = ranked[:e.opts.TopArticles]
	}

	processed := make([]models.ProcessedArticle, 0, len(ranked))
	var allKeywords []string

	for i, article := range ranked {
		summary, err := e.processor.Summarize(ctx, article)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize article %q: %w", article.Title, err)
		}

		keywords, err := e.processor.ExtractKeywords(ctx, article)
		if err != nil {
			return nil, fmt.Errorf("failed to extract keywords for article %q: %w", article.Title, err)
		}
		allKeywords = append(allKeywords, keywords...)

		processed = append(processed, models.ProcessedArticle{
			Rank:           i + 1,
			Title:          article.Title,
			URL:            article.URL,
			Source:         article.Source,
			RelevanceScore: article.RelevanceScore,
			Snippet:        article.Snippet,
			Summary:        summary,
			Keywords:       keywords,
		})
	}

	topKeywords := e.processor.TopKeywords(allKeywords, e.opts.TopKeywords)

	run.Results.ProcessedArticles = processed
	run.Results.TopKeywords = topKeywords
	run.Results.ProcessingCompleted = true

	run.AppendTrace(fmt.Sprintf("STEP %d: Processed %d articles and extracted %d top keywords",
		stepNumber, len(processed), len(topKeywords)))

	return map[string]interface{}{
		"processed_articles":       len(processed),
		"total_articles_processed": len(processed),
		"top_keywords":             len(topKeywords),
		"all_keywords_count":       len(allKeywords),
	}, nil
}

// stagePersist saves the accumulated results and trace log.
func (e *Engine) stagePersist(ctx context.Context, run *models.ResearchRun, stepNumber int) (map[string]interface{}, error) {
	if err := e.persistRun(ctx, run); err != nil {
		return nil, err
	}

	run.AppendTrace(fmt.Sprintf("STEP %d: Results and logs saved to database successfully", stepNumber))

	return map[string]interface{}{
		"results_saved":    true,
		"database_updated": true,
		"steps_completed":  len(run.Steps),
		"workflow_version": models.WorkflowVersion,
	}, nil
}

// stageDeliver shapes the run into the frontend view: articles and
// keywords plus the rendered step records and trace log so far.
func (e *Engine) stageDeliver(ctx context.Context, run *models.ResearchRun, stepNumber int) (map[string]interface{}, error) {
	workflowSteps := make([]models.WorkflowStep, 0, len(run.Steps))
	for i, step := range run.Steps {
		workflowSteps = append(workflowSteps, models.WorkflowStep{
			StepNumber:      i + 1,
			StepID:          step.ID,
			Kind:            step.Kind,
			Description:     step.Description,
			Status:          step.Status,
			DurationSeconds: step.DurationSeconds,
			Timestamp:       step.Timestamp,
			OutputData:      step.OutputData,
			ErrorMessage:    step.ErrorMessage,
		})
	}

	frontend := &models.FrontendResults{
		ResearchID:             run.ID,
		Topic:                  run.Topic,
		Status:                 string(run.Status),
		TotalArticles:          run.Results.TotalArticles,
		SourceCounts:           run.Results.SourceCounts,
		Articles:               run.Results.ProcessedArticles,
		TopKeywords:            run.Results.TopKeywords,
		WorkflowSteps:          workflowSteps,
		TotalArticlesProcessed: len(run.Results.ProcessedArticles),
		WorkflowCompleted:      true,
		WorkflowVersion:        models.WorkflowVersion,
		CompletedAt:            run.CompletedAt,
	}

	run.Results.Frontend = frontend
	run.Results.FrontendReady = true

	run.AppendTrace(fmt.Sprintf("STEP %d: Results prepared for frontend consumption", stepNumber))

	// Snapshot the trace after its own line so the payload carries the
	// full log, as the original's shared-reference payload does
	frontend.TraceLog = make([]string, len(run.TraceLog))
	copy(frontend.TraceLog, run.TraceLog)

	return map[string]interface{}{
		"results_prepared": true,
		"frontend_ready":   true,
	}, nil
}
