package pipeline

import (
	"profilematch/internal"
)

// BuildDocument parses every slide on its own and keeps the raw text next to
// the parsed fields. Slides are numbered 1..n in the order given.
func (e *FieldExtractor) BuildDocument(filename string, slides []internal.RawSlide) internal.DocumentRecord {
	doc := internal.DocumentRecord{
		Filename: filename,
		Slides:   make([]internal.SlideRecord, 0, len(slides)),
	}
	for i, slide := range slides {
		doc.Slides = append(doc.Slides, internal.SlideRecord{
			SlideNum:   i + 1,
			RawData:    slide.RawText,
			ParsedData: e.ParseSlide(slide.RawText),
		})
	}
	return doc
}
