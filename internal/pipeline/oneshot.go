package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"profilematch/internal"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// SourceKindFor maps a file extension to its reader. ok is false for
// extensions no reader handles.
func SourceKindFor(filename string) (internal.SourceKind, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pptx":
		return internal.SourcePPTX, true
	case ".pdf":
		return internal.SourcePDF, true
	case ".docx":
		return internal.SourceDOCX, true
	case ".html", ".htm":
		return internal.SourceHTML, true
	case ".txt":
		return internal.SourceText, true
	default:
		return "", false
	}
}

func ExtractSlides(kind internal.SourceKind, content []byte) ([]internal.RawSlide, error) {
	switch kind {
	case internal.SourcePPTX:
		return parsePPTX(content)
	case internal.SourcePDF:
		return parsePDF(content)
	case internal.SourceDOCX:
		return parseDOCX(content)
	case internal.SourceHTML:
		return parseHTML(content)
	case internal.SourceText:
		return parseText(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
}
