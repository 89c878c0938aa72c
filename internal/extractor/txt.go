package extractor

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// txtEncoding is one decode attempt in the fallback order.
type txtEncoding struct {
	name    string
	charmap *charmap.Charmap // nil means strict UTF-8
}

// Decode order mirrors the supported-encoding contract. Latin-1 accepts
// any byte sequence, so the later entries only matter if the list is
// reordered, but the full set stays declared for that reason.
var txtEncodings = []txtEncoding{
	{name: "utf-8"},
	{name: "latin-1", charmap: charmap.ISO8859_1},
	{name: "cp1252", charmap: charmap.Windows1252},
	{name: "iso-8859-1", charmap: charmap.ISO8859_1},
}

// extractTXT reads the file once and attempts each encoding in order,
// returning the first successful non-empty decode.
func extractTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading TXT file: %v", ErrExtractionFailed, err)
	}

	var failures []string
	for _, enc := range txtEncodings {
		text, err := enc.decode(data)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", enc.name, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			failures = append(failures, fmt.Sprintf("%s: TXT file is empty", enc.name))
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: could not read TXT file with any supported encoding: %s",
		ErrExtractionFailed, strings.Join(failures, "; "))
}

func (e txtEncoding) decode(data []byte) (string, error) {
	if e.charmap == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8 byte sequence")
		}
		return string(data), nil
	}
	decoded, err := e.charmap.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
