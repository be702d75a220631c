package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// Extractor implements the PDFExtractor interface using pdfcpu.
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service.
func NewExtractor(logger arbor.ILogger) *Extractor {
	// Temp directory for per-page content extraction
	tempDir := filepath.Join(os.TempDir(), "necomply-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractText extracts all text content from the PDF at the given path,
// concatenated across pages.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	pages, err := e.ExtractPages(ctx, path)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for i, page := range pages {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(page.Text)
	}

	return builder.String(), nil
}

// ExtractPages extracts text content by page from the PDF at the given path.
func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]interfaces.PDFPageContent, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("PDF file not accessible: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	pageCount := pdfCtx.PageCount
	pages := make([]interfaces.PDFPageContent, 0, pageCount)

	// pdfcpu extracts page content to files rather than returning text
	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d", os.Getpid()))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("Failed to extract PDF content")
		// Return pages with empty text so callers can report page count
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, interfaces.PDFPageContent{
				PageNumber: pageNum,
				Text:       "",
			})
		}
		return pages, nil
	}

	// Read extracted content files back, keyed by page number
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, interfaces.PDFPageContent{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
		})
	}

	e.logger.Debug().
		Str("path", path).
		Int("pages", pageCount).
		Msg("PDF text extraction completed")

	return pages, nil
}
