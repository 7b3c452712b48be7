package xlsx

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

// Extractor flattens every sheet of a workbook into tab-separated lines,
// each sheet introduced by a "# <sheet>" header.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Supports(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xlsx")
}

func (e *Extractor) Extract(ctx context.Context, filename string, body io.Reader) (ports.ExtractedText, error) {
	book, err := excelize.OpenReader(body)
	if err != nil {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract xlsx", fmt.Errorf("open %s: %w", filename, err))
	}
	defer book.Close()

	var text strings.Builder
	for _, sheet := range book.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return ports.ExtractedText{}, err
		}
		rows, err := book.GetRows(sheet)
		if err != nil {
			return ports.ExtractedText{}, fmt.Errorf("read sheet %q of %s: %w", sheet, filename, err)
		}
		if len(rows) == 0 {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString("# ")
		text.WriteString(sheet)
		text.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if line == "" {
				continue
			}
			text.WriteString(line)
			text.WriteString("\n")
		}
	}

	out := strings.TrimSpace(text.String())
	if out == "" {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract xlsx", fmt.Errorf("%s has no cell values", filename))
	}
	return ports.ExtractedText{Filename: strings.TrimSuffix(filename, filepath.Ext(filename)) + ".txt", Text: out}, nil
}
