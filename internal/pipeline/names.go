package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"

	"profilematch/internal"
)

type NameSource string

const (
	NameFromFilename  NameSource = "filename"
	NameFromMixedCase NameSource = "mixed_case"
	NameFromPlain     NameSource = "plain"
	NameFromNone      NameSource = "none"
)

var (
	reFilenameName = regexp.MustCompile(`^(\w+)\s+(\w+)\s+-\s+Consultant Profile`)
	reNameToken    = regexp.MustCompile(`\b[A-Z][a-z]+(?:[A-Z][a-z]+)?\b`)
	reInteriorCap  = regexp.MustCompile(`[a-z][A-Z]`)
)

// NameMatcher returns the resolved name or "" when it does not apply.
type NameMatcher struct {
	Source NameSource
	Match  func(filename, body string) string
}

// NameResolver tries its matchers in order; the first non-empty result wins.
type NameResolver struct {
	matchers []NameMatcher
}

func NewNameResolver() *NameResolver {
	return &NameResolver{matchers: []NameMatcher{
		{Source: NameFromFilename, Match: nameFromFilename},
		{Source: NameFromMixedCase, Match: nameFromMixedCase},
		{Source: NameFromPlain, Match: nameFromPlain},
	}}
}

func (r *NameResolver) Resolve(filename, body string) string {
	name, _ := r.ResolveWithSource(filename, body)
	return name
}

func (r *NameResolver) ResolveWithSource(filename, body string) (string, NameSource) {
	for _, m := range r.matchers {
		if name := m.Match(filename, body); name != "" {
			return name, m.Source
		}
	}
	return internal.UnknownName, NameFromNone
}

func nameFromFilename(filename, _ string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." {
		return ""
	}
	m := reFilenameName.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2]
}

// nameFromMixedCase accepts tokens like McDonald or DiPrima; at least one of
// the two tokens must carry an interior capital. Every adjacent token pair is
// tried, so a plain pair ending on the first name does not hide the name.
func nameFromMixedCase(_, body string) string {
	tokens := reNameToken.FindAllStringIndex(body, -1)
	for i := 0; i+1 < len(tokens); i++ {
		first, second := tokens[i], tokens[i+1]
		if second[0] != first[1]+1 || !isNameGap(body[first[1]]) {
			continue
		}
		candidate := body[first[0]:second[1]]
		if reInteriorCap.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}

// isNameGap reports whether c is one of the characters RE2 matches with \s.
func isNameGap(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func nameFromPlain(_, body string) string {
	return reFieldName.FindString(body)
}
