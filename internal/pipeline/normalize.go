package pipeline

import (
	"profilematch/internal/util"
)

// Prepare is the cleaning stage: control characters collapse to spaces, then
// region names become codes. It runs before any field pattern so a
// multi-word region name never straddles a match boundary.
func (e *FieldExtractor) Prepare(raw string) string {
	return e.regions.Normalize(util.CleanText(raw))
}
