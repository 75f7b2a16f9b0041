package interfaces

import (
	"github.com/ternarybob/scrutor/internal/models"
)

// ExportService renders a research run into a document
type ExportService interface {
	// RenderPDF renders the run as a PDF document
	RenderPDF(run *models.ResearchRun) ([]byte, error)

	// RenderMarkdown renders the run as a markdown report
	RenderMarkdown(run *models.ResearchRun) string
}
