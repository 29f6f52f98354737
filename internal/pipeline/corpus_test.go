package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilematch/internal"
)

func TestBuildCorpus(t *testing.T) {
	got := BuildCorpus([]internal.ConsultantCorpusEntry{
		{Name: "A", ProfileText: "x"},
		{Name: "B", ProfileText: "y"},
	})
	assert.Equal(t, "name: A\nprofile_text: x\n\nname: B\nprofile_text: y\n", got)
}

func TestBuildCorpusEdges(t *testing.T) {
	assert.Equal(t, "", BuildCorpus(nil))
	assert.Equal(t, "name: Unknown\nprofile_text: \n", BuildCorpus([]internal.ConsultantCorpusEntry{{Name: internal.UnknownName}}))
}

func TestBuildDocument(t *testing.T) {
	e := NewDefaultFieldExtractor()
	slides := []internal.RawSlide{
		{SlideNum: 3, RawText: "Jane Doe\x0bSr. Consultant\nAustin, Texas"},
		{SlideNum: 7, RawText: ""},
		{SlideNum: 9, RawText: "Skills:\tGo, Kubernetes"},
	}

	doc := e.BuildDocument("Jane Doe - Consultant Profile.pptx", slides)

	assert.Equal(t, "Jane Doe - Consultant Profile.pptx", doc.Filename)
	require.Len(t, doc.Slides, 3)
	for i, s := range doc.Slides {
		assert.Equal(t, i+1, s.SlideNum)
		assert.Equal(t, slides[i].RawText, s.RawData)
	}
	assert.Equal(t, "Sr. Consultant", doc.Slides[0].ParsedData.Title)
	assert.Equal(t, "Austin, TX", doc.Slides[0].ParsedData.Location)
	assert.Equal(t, internal.ParsedFields{}, doc.Slides[1].ParsedData)
}

func TestBuildDocumentNoSlides(t *testing.T) {
	doc := NewDefaultFieldExtractor().BuildDocument("empty.pdf", nil)
	assert.NotNil(t, doc.Slides)
	assert.Empty(t, doc.Slides)
}

func TestEntryFromDocument(t *testing.T) {
	e := NewDefaultFieldExtractor()
	doc := e.BuildDocument("Jane Doe - Consultant Profile.pptx", []internal.RawSlide{
		{RawText: "John Smith\nSr. Consultant"},
		{RawText: "   "},
		{RawText: "Skills:\tGo"},
	})

	entry := EntryFromDocument(doc, NewNameResolver())

	assert.Equal(t, "Jane Doe", entry.Name)
	assert.Equal(t, "John Smith Sr. Consultant Skills: Go", entry.ProfileText)
}

func TestEntryFromDocumentBodyName(t *testing.T) {
	e := NewDefaultFieldExtractor()
	doc := e.BuildDocument("deck.pptx", []internal.RawSlide{{RawText: "Kevin O'Brien works with Ian McKay"}})

	entry := EntryFromDocument(doc, NewNameResolver())

	assert.Equal(t, "Ian McKay", entry.Name)
}
