package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

// Extractor pulls the text layer out of PDF uploads. Scanned PDFs without a
// text layer are rejected.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Supports(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func (e *Extractor) Extract(ctx context.Context, filename string, body io.Reader) (out ports.ExtractedText, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			out = ports.ExtractedText{}
			err = domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("parse %s: %v", filename, r))
		}
	}()

	raw, err := io.ReadAll(body)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := ctx.Err(); err != nil {
		return ports.ExtractedText{}, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("open %s: %w", filename, err))
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("read text of %s: %w", filename, err))
	}
	var text strings.Builder
	if _, err := io.Copy(&text, plain); err != nil {
		return ports.ExtractedText{}, fmt.Errorf("copy text of %s: %w", filename, err)
	}

	extracted := strings.TrimSpace(text.String())
	if extracted == "" {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s has no text layer", filename))
	}
	return ports.ExtractedText{Filename: textName(filename), Text: extracted}, nil
}

func textName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".txt"
}
