package pipeline

import "strings"

type DetectResult struct {
	IsProfile bool
	Score     float64
	Reason    string
}

var detectKeywords = []string{"consultant profile", "profile", "resume", "cv", "bio", "consultant", "deck"}

// DetectProfileMail scores a message by keyword hits and by whether it
// carries an attachment one of the document readers understands.
func DetectProfileMail(subject, text string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
		if strings.Contains(text, kw) {
			score += 0.1
		}
	}

	supported, named := false, false
	for _, name := range attachmentNames {
		if _, ok := SourceKindFor(name); ok {
			supported = true
		}
		if reFilenameName.MatchString(name) {
			named = true
		}
	}
	if supported {
		score += 0.3
	}
	if named {
		score += 0.5
	}
	if score > 1 {
		score = 1
	}

	if !supported {
		return DetectResult{IsProfile: false, Score: score, Reason: "no_supported_attachment"}
	}

	isProfile := score >= 0.45
	reason := "rules_negative"
	if isProfile {
		reason = "rules_positive"
	}
	return DetectResult{IsProfile: isProfile, Score: score, Reason: reason}
}
