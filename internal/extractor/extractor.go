// Package extractor converts uploaded source files (PDF or plain text)
// into raw text, trying multiple extraction strategies in priority order
// until one succeeds.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"rag-engine/internal/middleware"

	"go.opentelemetry.io/otel/attribute"
)

// Sentinel errors reported to callers. Wrapped errors carry the detail.
var (
	// ErrNotFound indicates the source file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedType indicates an extension other than .pdf or .txt.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrDocumentTooLarge indicates the PDF exceeds the page ceiling.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrExtractionFailed indicates every strategy or encoding was
	// exhausted without producing text.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Strategy is one independent way of pulling text out of a PDF. A
// strategy either returns non-empty text or an error; the Extractor
// tries the next one on any failure.
type Strategy interface {
	Name() string
	TryExtract(path string) (string, error)
}

// Extractor runs an ordered list of PDF strategies and an ordered list
// of text encodings. Strategies are tried sequentially, never raced.
type Extractor struct {
	maxPages   int
	strategies []Strategy
}

// New builds an Extractor with the default strategy chain. maxPages is
// the PDF page-count ceiling, enforced by every strategy before it does
// any expensive work.
func New(maxPages int) *Extractor {
	return &Extractor{
		maxPages: maxPages,
		strategies: []Strategy{
			&pdftextStrategy{maxPages: maxPages},
			&pdfrowsStrategy{maxPages: maxPages},
			&pdfpagesStrategy{maxPages: maxPages},
		},
	}
}

// NewWithStrategies builds an Extractor with an explicit strategy chain.
func NewWithStrategies(maxPages int, strategies ...Strategy) *Extractor {
	return &Extractor{maxPages: maxPages, strategies: strategies}
}

// Extract validates the file and returns its raw text content. The
// extension decides the pipeline: .pdf goes through the strategy chain,
// .txt through encoding detection. Matching is case-insensitive.
func (e *Extractor) Extract(ctx context.Context, filename, path string) (string, error) {
	_, span := middleware.StartSpan(ctx, "Extractor.Extract",
		attribute.String("file.name", filename),
	)
	defer span.End()

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return e.extractPDF(path)
	case strings.HasSuffix(lower, ".txt"):
		return extractTXT(path)
	default:
		return "", fmt.Errorf("%w: %s (only .pdf and .txt files are supported)", ErrUnsupportedType, filename)
	}
}

// extractPDF walks the strategy chain, short-circuiting on the first
// strategy that yields non-empty text. A page-ceiling violation aborts
// the chain immediately: retrying a too-large document with another
// strategy cannot change its page count.
func (e *Extractor) extractPDF(path string) (string, error) {
	var failures []string

	for _, strat := range e.strategies {
		text, err := strat.TryExtract(path)
		if err != nil {
			if errors.Is(err, ErrDocumentTooLarge) {
				return "", err
			}
			failures = append(failures, fmt.Sprintf("%s: %v", strat.Name(), err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			failures = append(failures, fmt.Sprintf("%s: no content extracted", strat.Name()))
			continue
		}
		return text, nil
	}

	detail := strings.Join(failures, "; ")
	if info := describePDF(path); info != "" {
		return "", fmt.Errorf("%w: failed to extract text from PDF using all methods. %s. Errors: %s. This PDF may be image-based or corrupted",
			ErrExtractionFailed, info, detail)
	}
	return "", fmt.Errorf("%w: failed to extract text from PDF using all methods. Errors: %s",
		ErrExtractionFailed, detail)
}
