package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor accepts any file whose bytes are valid UTF-8.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Supports(string) bool {
	return true
}

func (e *Extractor) Extract(ctx context.Context, filename string, body io.Reader) (ports.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return ports.ExtractedText{}, err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("read %s: %w", filename, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if !utf8.Valid(raw) {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("%s is not a UTF-8 text file", filename))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("%s is empty", filename))
	}
	return ports.ExtractedText{Filename: filename, Text: string(raw)}, nil
}
