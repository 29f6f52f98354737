package pipeline

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilematch/internal"
)

type zipEntry struct {
	name string
	body string
}

// buildZip keeps the entry order so tests can check that readers do not
// rely on it.
func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const slideXMLHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`

const slideXMLTail = `</p:spTree></p:cSld></p:sld>`

func slideXML(shapes ...string) string {
	return slideXMLHead + strings.Join(shapes, "") + slideXMLTail
}

func textShape(paragraphs ...string) string {
	body := ""
	for _, p := range paragraphs {
		body += `<a:p>` + p + `</a:p>`
	}
	return `<p:sp><p:nvSpPr><p:cNvPr id="2" name="Text"/></p:nvSpPr><p:txBody><a:bodyPr/>` + body + `</p:txBody></p:sp>`
}

func run(text string) string {
	return `<a:r><a:rPr lang="en-US"/><a:t>` + text + `</a:t></a:r>`
}

func TestParsePPTX(t *testing.T) {
	blob := buildZip(t, []zipEntry{
		{name: "[Content_Types].xml", body: `<Types/>`},
		{name: "ppt/slides/slide10.xml", body: slideXML(textShape(run("Ten")))},
		{name: "ppt/slides/slide2.xml", body: slideXML(
			textShape(run("Skills")),
			`<p:sp><p:spPr/></p:sp>`,
			textShape(run("Go"), run("Kubernetes")),
		)},
		{name: "ppt/slides/_rels/slide1.xml.rels", body: `<Relationships/>`},
		{name: "ppt/slides/slide1.xml", body: slideXML(
			textShape(run("Jane Doe")+`<a:br/>`+run("Sr. Consultant"), run("Austin, Texas")),
		)},
	})

	slides, err := ExtractSlides(internal.SourcePPTX, blob)
	require.NoError(t, err)
	require.Len(t, slides, 3)

	assert.Equal(t, internal.RawSlide{SlideNum: 1, RawText: "Jane Doe\vSr. Consultant\nAustin, Texas"}, slides[0])
	assert.Equal(t, internal.RawSlide{SlideNum: 2, RawText: "Skills Go\nKubernetes"}, slides[1])
	assert.Equal(t, internal.RawSlide{SlideNum: 3, RawText: "Ten"}, slides[2])
}

func TestParsePPTXEmptySlide(t *testing.T) {
	blob := buildZip(t, []zipEntry{
		{name: "ppt/slides/slide1.xml", body: slideXML(`<p:sp><p:spPr/></p:sp>`)},
	})

	slides, err := ExtractSlides(internal.SourcePPTX, blob)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, "", slides[0].RawText)
}

func TestParsePPTXErrors(t *testing.T) {
	_, err := ExtractSlides(internal.SourcePPTX, []byte("not a zip"))
	assert.Error(t, err)

	blob := buildZip(t, []zipEntry{{name: "ppt/presentation.xml", body: `<p:presentation/>`}})
	_, err = ExtractSlides(internal.SourcePPTX, blob)
	assert.Error(t, err)
}

func TestParseDOCX(t *testing.T) {
	blob := buildZip(t, []zipEntry{
		{name: "[Content_Types].xml", body: `<Types/>`},
		{name: "word/_rels/document.xml.rels", body: `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`},
		{name: "word/document.xml", body: `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>Jane Doe</w:t></w:r><w:r><w:br/></w:r><w:r><w:t>Sr. Consultant</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>R&amp;D lead</w:t></w:r></w:p>` +
			`</w:body></w:document>`},
	})

	slides, err := ExtractSlides(internal.SourceDOCX, blob)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, "Jane Doe\vSr. Consultant\nR&D lead", slides[0].RawText)
}

func TestParseHTML(t *testing.T) {
	page := `<html><head><style>h1{}</style></head><body>
<section><h1>Jane Doe</h1><p>Sr. Consultant</p></section>
<section><p>Go</p><script>var x = 1;</script><ul><li>Kubernetes</li></ul></section>
</body></html>`

	slides, err := ExtractSlides(internal.SourceHTML, []byte(page))
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "Jane Doe\nSr. Consultant", slides[0].RawText)
	assert.Equal(t, "Go\nKubernetes", slides[1].RawText)
}

func TestParseHTMLWithoutSections(t *testing.T) {
	slides, err := ExtractSlides(internal.SourceHTML, []byte(`<html><body><p>Jane Doe</p><p>Manager</p></body></html>`))
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, internal.RawSlide{SlideNum: 1, RawText: "Jane Doe\nManager"}, slides[0])
}

func TestParseText(t *testing.T) {
	slides, err := ExtractSlides(internal.SourceText, []byte("Jane Doe\r\nConsultant\fSkills"))
	require.NoError(t, err)
	assert.Equal(t, []internal.RawSlide{
		{SlideNum: 1, RawText: "Jane Doe\nConsultant"},
		{SlideNum: 2, RawText: "Skills"},
	}, slides)
}

func TestSourceKindFor(t *testing.T) {
	cases := map[string]internal.SourceKind{
		"a.pptx": internal.SourcePPTX,
		"a.PDF":  internal.SourcePDF,
		"a.docx": internal.SourceDOCX,
		"a.htm":  internal.SourceHTML,
		"a.html": internal.SourceHTML,
		"a.txt":  internal.SourceText,
	}
	for name, want := range cases {
		got, ok := SourceKindFor(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := SourceKindFor("deck.key")
	assert.False(t, ok)
}

func TestExtractSlidesUnsupportedKind(t *testing.T) {
	_, err := ExtractSlides(internal.SourceKind("xls"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

// buildPDF writes a one-page PDF whose content stream is stream, declared with
// the given filter entry (e.g. " /Filter /FlateDecode").
func buildPDF(t *testing.T, stream, filter string) []byte {
	t.Helper()
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << >> >>",
		fmt.Sprintf("<< /Length %d%s >>\nstream\n%s\nendstream", len(stream), filter, stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestParsePDF(t *testing.T) {
	slides, err := ExtractSlides(internal.SourcePDF, buildPDF(t, "BT (Jane Doe Consultant) Tj ET", ""))
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, 1, slides[0].SlideNum)
	assert.Equal(t, "Jane Doe Consultant", strings.TrimSpace(slides[0].RawText))
}

func TestParsePDFCorruptPage(t *testing.T) {
	// the stream claims FlateDecode but holds raw operators
	blob := buildPDF(t, "BT (Jane Doe) Tj ET", " /Filter /FlateDecode")

	slides, err := ExtractSlides(internal.SourcePDF, blob)
	assert.Error(t, err)
	assert.Empty(t, slides)
}
