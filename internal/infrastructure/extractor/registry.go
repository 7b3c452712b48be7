package extractor

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/ragdesk/internal/core/ports"
	"github.com/kirillkom/ragdesk/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/ragdesk/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/ragdesk/internal/infrastructure/extractor/xlsx"
)

// Registry dispatches to the first extractor that supports a filename.
type Registry struct {
	extractors []ports.TextExtractor
}

func NewRegistry(extractors ...ports.TextExtractor) *Registry {
	return &Registry{extractors: extractors}
}

// NewDefaultRegistry handles PDF and XLSX, and validates everything else as
// UTF-8 text.
func NewDefaultRegistry() *Registry {
	return NewRegistry(pdf.NewExtractor(), xlsx.NewExtractor(), plaintext.NewExtractor())
}

func (r *Registry) Supports(filename string) bool {
	return r.find(filename) != nil
}

func (r *Registry) Extract(ctx context.Context, filename string, body io.Reader) (ports.ExtractedText, error) {
	extractor := r.find(filename)
	if extractor == nil {
		return ports.ExtractedText{}, fmt.Errorf("no extractor for %s", filename)
	}
	return extractor.Extract(ctx, filename, body)
}

func (r *Registry) find(filename string) ports.TextExtractor {
	for _, extractor := range r.extractors {
		if extractor.Supports(filename) {
			return extractor
		}
	}
	return nil
}
