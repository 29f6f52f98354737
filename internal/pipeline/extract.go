package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"profilematch/internal"
)

var (
	reSlidePart   = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	reDocxParaEnd = regexp.MustCompile(`</w:p>`)
	reDocxBreak   = regexp.MustCompile(`<w:(?:br|cr)\s*/>`)
	reDocxTab     = regexp.MustCompile(`<w:tab\s*/>`)
	reXMLTag      = regexp.MustCompile(`<[^>]+>`)
)

type slidePart struct {
	num  int
	file *zip.File
}

// parsePPTX returns one RawSlide per slide part, ordered by slide number.
// Shapes without a text body contribute nothing.
func parsePPTX(content []byte) ([]internal.RawSlide, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}

	parts := make([]slidePart, 0)
	for _, f := range zr.File {
		m := reSlidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		parts = append(parts, slidePart{num: num, file: f})
	}
	if len(parts) == 0 {
		return nil, errors.New("open pptx: no slides found")
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].num < parts[j].num })

	out := make([]internal.RawSlide, 0, len(parts))
	for _, p := range parts {
		rc, err := p.file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p.file.Name, err)
		}
		text, err := slideText(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p.file.Name, err)
		}
		out = append(out, internal.RawSlide{SlideNum: len(out) + 1, RawText: text})
	}
	return out, nil
}

// slideText walks the slide XML. Paragraphs inside a shape are separated by
// newlines, line breaks become vertical tabs and shapes are joined by a space.
func slideText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var shapes []string
	var paragraphs []string
	var current strings.Builder
	shapeDepth := 0
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shapeDepth++
				if shapeDepth == 1 {
					paragraphs = paragraphs[:0]
				}
			case "p":
				current.Reset()
			case "t":
				inText = shapeDepth > 0
			case "br":
				if shapeDepth > 0 {
					current.WriteString("\v")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if shapeDepth > 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "sp":
				shapeDepth--
				if shapeDepth == 0 {
					if text := strings.Join(paragraphs, "\n"); strings.TrimSpace(text) != "" {
						shapes = append(shapes, text)
					}
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return strings.Join(shapes, " "), nil
}

func parsePDF(content []byte) ([]internal.RawSlide, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	out := []internal.RawSlide{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		out = append(out, internal.RawSlide{SlideNum: len(out) + 1, RawText: text})
	}
	return out, nil
}

// parseDOCX treats the whole document body as a single page.
func parseDOCX(content []byte) ([]internal.RawSlide, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	body := doc.Editable().GetContent()
	body = reDocxParaEnd.ReplaceAllString(body, "\n")
	body = reDocxBreak.ReplaceAllString(body, "\v")
	body = reDocxTab.ReplaceAllString(body, "\t")
	body = html.UnescapeString(reXMLTag.ReplaceAllString(body, ""))

	return []internal.RawSlide{{SlideNum: 1, RawText: strings.TrimSpace(body)}}, nil
}

// parseHTML reads exported slide decks where each slide is a <section>. A page
// without sections becomes one slide holding the body text.
func parseHTML(content []byte) ([]internal.RawSlide, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	doc.Find("script,style,noscript").Remove()

	out := []internal.RawSlide{}
	doc.Find("section").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("section").Length() > 0 {
			return
		}
		out = append(out, internal.RawSlide{SlideNum: len(out) + 1, RawText: blockText(s)})
	})
	if len(out) > 0 {
		return out, nil
	}
	return []internal.RawSlide{{SlideNum: 1, RawText: blockText(doc.Find("body"))}}, nil
}

// blockText keeps one line per block element so that adjacent headings and
// paragraphs do not run together.
func blockText(s *goquery.Selection) string {
	lines := []string{}
	blocks := s.Find("h1,h2,h3,h4,h5,h6,p,li,td,th")
	if blocks.Length() == 0 {
		return strings.TrimSpace(s.Text())
	}
	blocks.Each(func(_ int, b *goquery.Selection) {
		if t := strings.TrimSpace(b.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	return strings.Join(lines, "\n")
}

// parseText splits plain text on form feeds.
func parseText(content []byte) ([]internal.RawSlide, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	pages := strings.Split(text, "\f")
	out := make([]internal.RawSlide, 0, len(pages))
	for _, p := range pages {
		out = append(out, internal.RawSlide{SlideNum: len(out) + 1, RawText: p})
	}
	return out, nil
}
