package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"ComplianceReview/internal/errors"
)

// pdfText returns the plain text of every page and the real page count.
// Pages whose content cannot be decoded are skipped.
func pdfText(ctx context.Context, path string) (text string, pages int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, errors.Wrapf(err, "stat %s", path)
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Mark(errors.Newf("parse %s: %v", path, r), errors.ErrUnsupportedFormat)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", 0, errors.Mark(errors.Wrapf(err, "parse %s", path), errors.ErrUnsupportedFormat)
	}

	pages = reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(content)
		}
	}
	return b.String(), pages, nil
}

func placeholder(kind, name string, size int64) string {
	return fmt.Sprintf("[%s document %s could not be parsed locally; %d bytes received. Remote document intelligence is required for full text.]",
		kind, name, size)
}
