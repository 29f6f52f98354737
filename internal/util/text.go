package util

import (
	"regexp"
	"strings"
)

var (
	reControlRuns = regexp.MustCompile(`[\x{000B}\n\r\t\f]+`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// CleanText flattens extracted text into a single trimmed line. Applying it
// twice gives the same result as applying it once.
func CleanText(input string) string {
	s := reControlRuns.ReplaceAllString(input, " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// JoinClean cleans every part, drops the empty ones and joins the rest with a
// single space.
func JoinClean(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := CleanText(p); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}

func SanitizeFilename(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", "\"", "_")
	out := strings.TrimSpace(repl.Replace(input))
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
