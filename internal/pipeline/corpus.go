package pipeline

import (
	"strings"

	"profilematch/internal"
	"profilematch/internal/util"
)

// EntryFromDocument flattens a document into the per-consultant corpus entry.
func EntryFromDocument(doc internal.DocumentRecord, resolver *NameResolver) internal.ConsultantCorpusEntry {
	parts := make([]string, 0, len(doc.Slides))
	for _, s := range doc.Slides {
		parts = append(parts, s.RawData)
	}
	body := util.JoinClean(parts)
	return internal.ConsultantCorpusEntry{
		Name:        resolver.Resolve(doc.Filename, body),
		ProfileText: body,
	}
}

// BuildCorpus serializes entries in order as "name:"/"profile_text:" blocks
// separated by a blank line.
func BuildCorpus(entries []internal.ConsultantCorpusEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("name: ")
		b.WriteString(e.Name)
		b.WriteString("\nprofile_text: ")
		b.WriteString(e.ProfileText)
		b.WriteString("\n")
	}
	return b.String()
}
