// Package export renders completed research runs as PDF or markdown
// reports.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// Service implements interfaces.ExportService
type Service struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ExportService = (*Service)(nil)

// NewService creates a new export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// RenderPDF renders the run as a PDF document
func (s *Service) RenderPDF(run *models.ResearchRun) ([]byte, error) {
	s.logger.Debug().
		Str("run_id", run.ID).
		Int("articles", len(run.Results.ProcessedArticles)).
		Msg("Rendering research run to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, fmt.Sprintf("Research Report: %s", run.Topic), "", "L", false)
	pdf.Ln(2)

	// Run metadata
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, fmt.Sprintf("Run: %s", run.ID), "", "L", false)
	pdf.MultiCell(0, 5, fmt.Sprintf("Status: %s", run.Status), "", "L", false)
	pdf.MultiCell(0, 5, fmt.Sprintf("Created: %s", run.CreatedAt.Format("2006-01-02 15:04:05")), "", "L", false)
	if run.CompletedAt != nil {
		pdf.MultiCell(0, 5, fmt.Sprintf("Completed: %s", run.CompletedAt.Format("2006-01-02 15:04:05")), "", "L", false)
	}
	pdf.Ln(4)

	// Top keywords
	if len(run.Results.TopKeywords) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 7, "Top Keywords", "", "L", false)
		pdf.SetFont("Arial", "", 9)
		for _, kw := range run.Results.TopKeywords {
			pdf.MultiCell(0, 5, fmt.Sprintf("- %s (%d)", kw.Keyword, kw.Frequency), "", "L", false)
		}
		pdf.Ln(4)
	}

	// Processed articles
	if len(run.Results.ProcessedArticles) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 7, "Articles", "", "L", false)
		for _, article := range run.Results.ProcessedArticles {
			pdf.SetFont("Arial", "B", 10)
			pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", article.Rank, article.Title), "", "L", false)
			pdf.SetFont("Arial", "I", 8)
			pdf.MultiCell(0, 4, fmt.Sprintf("%s | %s | relevance %.2f", article.Source, article.URL, article.RelevanceScore), "", "L", false)
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, article.Summary, "", "L", false)
			if len(article.Keywords) > 0 {
				pdf.MultiCell(0, 5, fmt.Sprintf("Keywords: %s", strings.Join(article.Keywords, ", ")), "", "L", false)
			}
			pdf.Ln(2)
		}
	}

	// Trace log
	if len(run.TraceLog) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 7, "Trace Log", "", "L", false)
		pdf.SetFont("Courier", "", 7)
		for _, line := range run.TraceLog {
			pdf.MultiCell(0, 4, line, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to generate PDF output")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated successfully")
	return buf.Bytes(), nil
}

// RenderMarkdown renders the run as a markdown report
func (s *Service) RenderMarkdown(run *models.ResearchRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research Report: %s\n\n", run.Topic)
	fmt.Fprintf(&b, "- **Run**: %s\n", run.ID)
	fmt.Fprintf(&b, "- **Status**: %s\n", run.Status)
	fmt.Fprintf(&b, "- **Created**: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		fmt.Fprintf(&b, "- **Completed**: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "- **Articles gathered**: %d\n\n", run.Results.TotalArticles)

	if len(run.Results.TopKeywords) > 0 {
		b.WriteString("## Top Keywords\n\n")
		for _, kw := range run.Results.TopKeywords {
			fmt.Fprintf(&b, "- %s (%d)\n", kw.Keyword, kw.Frequency)
		}
		b.WriteString("\n")
	}

	if len(run.Results.ProcessedArticles) > 0 {
		b.WriteString("## Articles\n\n")
		for _, article := range run.Results.ProcessedArticles {
			fmt.Fprintf(&b, "### %d. %s\n\n", article.Rank, article.Title)
			fmt.Fprintf(&b, "%s | [%s](%s) | relevance %.2f\n\n", article.Source, article.URL, article.URL, article.RelevanceScore)
			fmt.Fprintf(&b, "%s\n\n", article.Summary)
			if len(article.Keywords) > 0 {
				fmt.Fprintf(&b, "Keywords: %s\n\n", strings.Join(article.Keywords, ", "))
			}
		}
	}

	if len(run.TraceLog) > 0 {
		b.WriteString("## Trace Log\n\n```\n")
		for _, line := range run.TraceLog {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}

	return b.String()
}
