package parser

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/logging"
	"ComplianceReview/internal/ports"
)

const (
	linesPerPage = 50

	MethodLocal       = "local"
	MethodPlaceholder = "local_placeholder"
)

var pairExpr = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z /&()-]{1,40}?)\s*:\s+(\S.*)$`)

// LocalExtractor reads submissions from disk without any remote service.
// Plain text, markdown, HTML, PDF and DOCX are parsed; other formats get a
// placeholder so the pipeline can still score the submission.
type LocalExtractor struct {
	logger *zap.SugaredLogger
	clock  func() time.Time
}

var _ ports.Extractor = (*LocalExtractor)(nil)

// NewLocalExtractor wires a logger; nil means no logging.
func NewLocalExtractor(log *zap.SugaredLogger) *LocalExtractor {
	if log == nil {
		log = logging.Nop()
	}
	return &LocalExtractor{logger: log, clock: time.Now}
}

// Name identifies the channel in the audit trail.
func (e *LocalExtractor) Name() string { return "local_parser" }

// Process extracts text, tables and form fields from path.
func (e *LocalExtractor) Process(ctx context.Context, path string) (domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractionResult{}, err
	}

	info, err := Stat(path)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		text   string
		tables []domain.Table
		pairs  []domain.KeyValue
		pages  int
		method = MethodLocal
	)

	switch ext {
	case ".txt", ".md", ".text", "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return domain.ExtractionResult{}, errors.Wrapf(err, "read %s", path)
		}
		text = string(raw)
		pairs = TextPairs(text)
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return domain.ExtractionResult{}, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		doc, err := goquery.NewDocumentFromReader(f)
		if err != nil {
			return domain.ExtractionResult{}, errors.Mark(errors.Wrapf(err, "parse %s", path), errors.ErrUnsupportedFormat)
		}
		text, tables, pairs = htmlContent(doc)
		pairs = append(pairs, TextPairs(text)...)
	case ".pdf":
		text, pages, err = pdfText(ctx, path)
		if err != nil {
			return domain.ExtractionResult{}, err
		}
		pairs = TextPairs(text)
	case ".docx":
		text, pages, err = docxText(ctx, path)
		if err != nil {
			return domain.ExtractionResult{}, err
		}
		pairs = TextPairs(text)
	default:
		method = MethodPlaceholder
		text = placeholder(strings.TrimPrefix(ext, "."), filepath.Base(path), info.Size())
		e.logger.Warnw("no local parser for format, using placeholder", "path", path, "ext", ext)
	}

	if (ext == ".pdf" || ext == ".docx") && strings.TrimSpace(text) == "" {
		// Scanned pages carry no text layer.
		method = MethodPlaceholder
		text = placeholder(strings.TrimPrefix(ext, "."), filepath.Base(path), info.Size())
		e.logger.Warnw("document has no extractable text, using placeholder", "path", path, "pages", pages)
	}
	if pages < 1 {
		pages = EstimatePages(text)
	}

	e.logger.Debugw("document parsed", "path", path, "method", method, "chars", len(text), "pages", pages)
	return Build(text, pages, tables, pairs, method, Describe(path, info, pairs, e.clock())), nil
}

// Stat returns file info, marking a missing file as errors.ErrNotFound and a
// directory as errors.ErrUnsupportedFormat.
func Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "document %s", path), errors.ErrNotFound)
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, errors.Mark(errors.Newf("%s is a directory", path), errors.ErrUnsupportedFormat)
	}
	return info, nil
}

// Build assembles an ExtractionResult with derived counts.
func Build(text string, pages int, tables []domain.Table, pairs []domain.KeyValue, method string, meta domain.DocumentMetadata) domain.ExtractionResult {
	if pages < 1 {
		pages = 1
	}
	return domain.ExtractionResult{
		Text:          text,
		WordCount:     len(strings.Fields(text)),
		PageCount:     pages,
		CharCount:     len([]rune(text)),
		Tables:        tables,
		KeyValuePairs: pairs,
		Method:        method,
		Metadata:      meta,
	}
}

// EstimatePages assumes a fixed number of lines per page.
func EstimatePages(text string) int {
	if text == "" {
		return 1
	}
	return len(strings.Split(text, "\n"))/linesPerPage + 1
}

// Describe builds document metadata, lifting deadline, budget and applicant out
// of recognised form fields. The first matching pair wins.
func Describe(path string, info os.FileInfo, pairs []domain.KeyValue, now time.Time) domain.DocumentMetadata {
	meta := domain.DocumentMetadata{
		FileName:    filepath.Base(path),
		FileType:    strings.ToLower(filepath.Ext(path)),
		ProcessedAt: now,
	}
	if info != nil {
		meta.FileSize = info.Size()
	}

	for _, kv := range pairs {
		key := strings.ToLower(kv.Key)
		switch {
		case strings.Contains(key, "date") || strings.Contains(key, "deadline"):
			if meta.Deadline == "" {
				meta.Deadline = kv.Value
			}
		case strings.Contains(key, "amount") || strings.Contains(key, "budget"):
			if meta.BudgetAmount == "" {
				meta.BudgetAmount = kv.Value
			}
		case strings.Contains(key, "organization") || strings.Contains(key, "applicant"):
			if meta.Applicant == "" {
				meta.Applicant = kv.Value
			}
		}
	}
	return meta
}

// TextPairs finds "Key: Value" form lines in plain text.
func TextPairs(text string) []domain.KeyValue {
	var pairs []domain.KeyValue
	for _, line := range strings.Split(text, "\n") {
		m := pairExpr.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.Count(m[1], " ") > 4 {
			continue
		}
		pairs = append(pairs, domain.KeyValue{Key: strings.TrimSpace(m[1]), Value: strings.TrimSpace(m[2])})
	}
	return pairs
}

func htmlContent(doc *goquery.Document) (string, []domain.Table, []domain.KeyValue) {
	doc.Find("script, style, noscript").Remove()

	var blocks []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if t := collapse(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	text := strings.Join(blocks, "\n\n")
	if text == "" {
		text = collapse(doc.Find("body").Text())
	}

	var tables []domain.Table
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		var t domain.Table
		tbl.Find("tr").Each(func(row int, tr *goquery.Selection) {
			cols := 0
			tr.Find("th, td").Each(func(col int, cell *goquery.Selection) {
				t.Cells = append(t.Cells, domain.TableCell{Content: collapse(cell.Text()), Row: row, Column: col})
				cols++
			})
			if cols > t.ColumnCount {
				t.ColumnCount = cols
			}
			t.RowCount++
		})
		if t.RowCount > 0 {
			tables = append(tables, t)
		}
	})

	var pairs []domain.KeyValue
	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		key := strings.TrimSuffix(collapse(dt.Text()), ":")
		value := collapse(dt.Next().Filter("dd").Text())
		if key != "" && value != "" {
			pairs = append(pairs, domain.KeyValue{Key: key, Value: value})
		}
	})

	return text, tables, pairs
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
