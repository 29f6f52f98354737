package util

import (
	"regexp"
	"sort"
)

var usStates = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR", "California": "CA",
	"Colorado": "CO", "Connecticut": "CT", "Delaware": "DE", "Florida": "FL", "Georgia": "GA",
	"Hawaii": "HI", "Idaho": "ID", "Illinois": "IL", "Indiana": "IN", "Iowa": "IA", "Kansas": "KS",
	"Kentucky": "KY", "Louisiana": "LA", "Maine": "ME", "Maryland": "MD", "Massachusetts": "MA",
	"Michigan": "MI", "Minnesota": "MN", "Mississippi": "MS", "Missouri": "MO", "Montana": "MT",
	"Nebraska": "NE", "Nevada": "NV", "New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM",
	"New York": "NY", "North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK",
	"Oregon": "OR", "Pennsylvania": "PA", "Rhode Island": "RI", "South Carolina": "SC", "South Dakota": "SD",
	"Tennessee": "TN", "Texas": "TX", "Utah": "UT", "Vermont": "VT", "Virginia": "VA", "Washington": "WA",
	"West Virginia": "WV", "Wisconsin": "WI", "Wyoming": "WY", "District of Columbia": "DC",
}

type regionRule struct {
	name string
	code string
	re   *regexp.Regexp
}

// RegionTable maps full region names to fixed-width codes. It is built once
// and never mutated, so one instance can be shared by every parser.
type RegionTable struct {
	rules []regionRule
	codes map[string]string
}

func NewRegionTable(entries map[string]string) *RegionTable {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	// Longest first so "West Virginia" wins over "Virginia".
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	t := &RegionTable{
		rules: make([]regionRule, 0, len(names)),
		codes: make(map[string]string, len(names)),
	}
	for _, name := range names {
		code := entries[name]
		t.codes[name] = code
		t.rules = append(t.rules, regionRule{
			name: name,
			code: code,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`),
		})
	}
	return t
}

func NewUSStateTable() *RegionTable {
	return NewRegionTable(usStates)
}

// Normalize replaces every whole-word occurrence of a region name with its
// code. Matching is case-sensitive; longer words containing a name are left
// alone.
func (t *RegionTable) Normalize(text string) string {
	if t == nil {
		return text
	}
	for _, rule := range t.rules {
		text = rule.re.ReplaceAllLiteralString(text, rule.code)
	}
	return text
}

func (t *RegionTable) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	code, ok := t.codes[name]
	return code, ok
}

func (t *RegionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}
