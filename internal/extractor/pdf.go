package extractor

import (
	"bytes"
	"fmt"
	"strings"

	dpdf "github.com/dslipak/pdf"
	lpdf "github.com/ledongthuc/pdf"
)

// The PDF readers in use here panic on some malformed inputs. Each
// strategy runs under recoverPanic so a bad file becomes a per-strategy
// error and the chain moves on.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("parser panic: %v", r)
	}
}

// pdftextStrategy reads the whole document through the styled-text
// reader. Best fidelity for well-formed PDFs with a proper layout tree.
type pdftextStrategy struct {
	maxPages int
}

func (s *pdftextStrategy) Name() string { return "pdftext" }

func (s *pdftextStrategy) TryExtract(path string) (text string, err error) {
	defer recoverPanic(&err)

	f, r, err := lpdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if n := r.NumPage(); n > s.maxPages {
		return "", fmt.Errorf("%w: %d pages (limit: %d)", ErrDocumentTooLarge, n, s.maxPages)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// pdfrowsStrategy extracts page by page in row order, which copes with
// PDFs whose text objects are positioned rather than flowed.
type pdfrowsStrategy struct {
	maxPages int
}

func (s *pdfrowsStrategy) Name() string { return "pdfrows" }

func (s *pdfrowsStrategy) TryExtract(path string) (text string, err error) {
	defer recoverPanic(&err)

	r, err := dpdf.Open(path)
	if err != nil {
		return "", err
	}

	n := r.NumPage()
	if n > s.maxPages {
		return "", fmt.Errorf("%w: %d pages (limit: %d)", ErrDocumentTooLarge, n, s.maxPages)
	}

	var pages []string
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		var sb strings.Builder
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
				sb.WriteByte(' ')
			}
			sb.WriteByte('\n')
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			pages = append(pages, s)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// pdfpagesStrategy pulls plain text directly from each page object, the
// bluntest of the three methods and the last resort.
type pdfpagesStrategy struct {
	maxPages int
}

func (s *pdfpagesStrategy) Name() string { return "pdfpages" }

func (s *pdfpagesStrategy) TryExtract(path string) (text string, err error) {
	defer recoverPanic(&err)

	f, r, err := lpdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	n := r.NumPage()
	if n > s.maxPages {
		return "", fmt.Errorf("%w: %d pages (limit: %d)", ErrDocumentTooLarge, n, s.maxPages)
	}

	var pages []string
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if s := strings.TrimSpace(pageText); s != "" {
			pages = append(pages, s)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// describePDF gathers best-effort diagnostic metadata (page count,
// title, producer) via a lightweight structural read. It returns "" when
// even that fails; diagnostics must never mask the original failure.
func describePDF(path string) (info string) {
	defer func() {
		if recover() != nil {
			info = ""
		}
	}()

	f, r, err := lpdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	info = fmt.Sprintf("PDF has %d pages", r.NumPage())

	meta := r.Trailer().Key("Info")
	if title := meta.Key("Title").Text(); title != "" {
		info += ", Title: " + title
	}
	if producer := meta.Key("Producer").Text(); producer != "" {
		info += ", Producer: " + producer
	}
	return info
}
