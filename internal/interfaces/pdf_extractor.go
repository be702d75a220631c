package interfaces

import (
	"context"
)

// PDFPageContent represents extracted content from a single PDF page
type PDFPageContent struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// PDFExtractor defines the interface for extracting text from PDF documents.
// Abstracts the extraction backend so pdfcpu could be swapped for Tika or a
// cloud OCR service without touching the ingestion pipeline.
type PDFExtractor interface {
	// ExtractText extracts all text content from the PDF at the given path,
	// concatenated across pages.
	ExtractText(ctx context.Context, path string) (string, error)

	// ExtractPages extracts text content by page.
	ExtractPages(ctx context.Context, path string) ([]PDFPageContent, error)
}
