package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"ComplianceReview/internal/errors"
)

const (
	wordDocument = "word/document.xml"
	appProps     = "docProps/app.xml"
)

// docxText reads the body paragraphs of a Word document. The page count comes
// from docProps/app.xml when the authoring tool recorded one, otherwise 0.
func docxText(ctx context.Context, path string) (string, int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", 0, errors.Mark(errors.Wrapf(err, "open %s", path), errors.ErrUnsupportedFormat)
	}
	defer zr.Close()

	var (
		text  string
		pages int
		found bool
	)
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		switch f.Name {
		case wordDocument:
			rc, err := f.Open()
			if err != nil {
				return "", 0, errors.Wrapf(err, "open %s in %s", f.Name, path)
			}
			text, err = paragraphs(rc)
			rc.Close()
			if err != nil {
				return "", 0, errors.Mark(errors.Wrapf(err, "parse %s", path), errors.ErrUnsupportedFormat)
			}
			found = true
		case appProps:
			if rc, err := f.Open(); err == nil {
				pages = declaredPages(rc)
				rc.Close()
			}
		}
	}
	if !found {
		return "", 0, errors.Mark(errors.Newf("%s has no %s", path, wordDocument), errors.ErrUnsupportedFormat)
	}
	return text, pages, nil
}

// paragraphs collects w:t runs, one line per w:p. Tabs and breaks are kept.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		lines  []string
		line   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(line.String()); s != "" {
					lines = append(lines, s)
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(line.String()); s != "" {
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n"), nil
}

func declaredPages(r io.Reader) int {
	var props struct {
		Pages string `xml:"Pages"`
	}
	if err := xml.NewDecoder(r).Decode(&props); err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(props.Pages))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
