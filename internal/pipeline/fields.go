package pipeline

import (
	"regexp"
	"strings"

	"profilematch/internal"
	"profilematch/internal/util"
)

// DefaultTitleLabels is the closed set of role labels, most specific first.
// A label must precede every shorter label it contains.
var DefaultTitleLabels = []string{
	"Sr. Data Engineer",
	"Data Engineer",
	"Associate Consultant",
	"Jr. Consultant",
	"Sr. Consultant",
	"Sr. Manager",
	"Consultant",
	"Manager",
}

var (
	reFieldName     = regexp.MustCompile(`\b[A-Z][a-z]+\s[A-Z][a-z]+\b`)
	reFieldEmail    = regexp.MustCompile(`[\w.\-]+@[\w.\-]+`)
	reFieldMobile   = regexp.MustCompile(`\(\d{3}\) \d{3}-\d{4}`)
	reFieldLocation = regexp.MustCompile(`([^,]+), ([A-Z]{2})\b`)
	reCityWord      = regexp.MustCompile(`^[A-Z][A-Za-z.'\-]*$`)
	reWord          = regexp.MustCompile(`\S+`)
)

const maxCityWords = 3

type span struct {
	start, end int
}

func (s span) found() bool { return s.start >= 0 }

var noSpan = span{start: -1, end: -1}

// FieldExtractor turns one slide of text into ParsedFields. It holds no
// mutable state and is safe for concurrent use.
type FieldExtractor struct {
	regions *util.RegionTable
	labels  []string
	reTitle *regexp.Regexp
}

func NewFieldExtractor(regions *util.RegionTable, labels []string) *FieldExtractor {
	if len(labels) == 0 {
		labels = DefaultTitleLabels
	}
	ordered := append([]string(nil), labels...)
	quoted := make([]string, 0, len(ordered))
	for _, l := range ordered {
		quoted = append(quoted, regexp.QuoteMeta(l))
	}
	// RE2 alternation is leftmost-first: at one offset the earlier label wins.
	reTitle := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return &FieldExtractor{regions: regions, labels: ordered, reTitle: reTitle}
}

func NewDefaultFieldExtractor() *FieldExtractor {
	return NewFieldExtractor(util.NewUSStateTable(), DefaultTitleLabels)
}

func (e *FieldExtractor) Labels() []string {
	return append([]string(nil), e.labels...)
}

// ParseSlide cleans and normalizes raw slide text, then extracts fields.
func (e *FieldExtractor) ParseSlide(raw string) internal.ParsedFields {
	return e.Extract(e.Prepare(raw))
}

// Extract runs the field matchers over text that has already been through
// Prepare. Fields that do not match are "".
func (e *FieldExtractor) Extract(text string) internal.ParsedFields {
	var fields internal.ParsedFields
	if text == "" {
		return fields
	}

	fields.Name = reFieldName.FindString(text)
	fields.Email = reFieldEmail.FindString(text)
	fields.Mobile = reFieldMobile.FindString(text)

	title := findSpan(e.reTitle, text)
	if !title.found() {
		fields.Location, _ = findLocation(text, 0)
		return fields
	}
	fields.Location, _ = findLocation(text, title.end)
	fields.Title = text[title.start:title.end]
	fields.Data = util.CleanText(text[title.end:e.narrativeEnd(text, title.end)])
	return fields
}

// narrativeEnd is the earliest start of an email, mobile or location that
// follows the title, or the end of text.
func (e *FieldExtractor) narrativeEnd(text string, from int) int {
	end := len(text)
	rest := text[from:]

	for _, re := range []*regexp.Regexp{reFieldEmail, reFieldMobile} {
		if s := findSpan(re, rest); s.found() && from+s.start < end {
			end = from + s.start
		}
	}
	if _, s := findLocation(rest, 0); s.found() && from+s.start < end {
		end = from + s.start
	}
	return end
}

func findSpan(re *regexp.Regexp, text string) span {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return noSpan
	}
	return span{start: loc[0], end: loc[1]}
}

// findLocation returns the first "City, XX" in text and the span of the city
// start through the code. The city is the trailing run of capitalized words
// before the comma; words before floor never belong to it, so a title ending
// right before the city is not swallowed.
func findLocation(text string, floor int) (string, span) {
	for _, m := range reFieldLocation.FindAllStringSubmatchIndex(text, -1) {
		start := m[2]
		if floor > start && floor <= m[3] {
			start = floor
		}
		code := text[m[4]:m[5]]
		city, offset := trailingCity(text[start:m[3]])
		if city == "" {
			continue
		}
		return city + ", " + code, span{start: start + offset, end: m[5]}
	}
	return "", noSpan
}

func trailingCity(prefix string) (string, int) {
	words := reWord.FindAllStringIndex(prefix, -1)
	n := 0
	for i := len(words) - 1; i >= 0 && n < maxCityWords; i-- {
		if !reCityWord.MatchString(prefix[words[i][0]:words[i][1]]) {
			break
		}
		n++
	}
	if n == 0 {
		return "", 0
	}
	first := words[len(words)-n]
	return util.CleanText(prefix[first[0]:]), first[0]
}
