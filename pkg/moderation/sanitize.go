package moderation

import (
	"regexp"
	"strings"
)

var (
	mentionPattern  = regexp.MustCompile(`@(everyone|here|[!&]?[0-9]{17,20})`)
	markdownPattern = regexp.MustCompile("([\\\\*_~`|])")
	quotePattern    = regexp.MustCompile(`(?m)^(>+)`)
)

const (
	defaultReason = "No reason provided."
	maxReasonLen  = 1000
)

// SanitizeReason neutralises mentions and markdown in free-text reasons so
// they render verbatim in embeds and never ping anyone.
func SanitizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return defaultReason
	}
	if r := []rune(reason); len(r) > maxReasonLen {
		reason = string(r[:maxReasonLen])
	}
	reason = markdownPattern.ReplaceAllString(reason, `\$1`)
	reason = quotePattern.ReplaceAllString(reason, `\$1`)
	return mentionPattern.ReplaceAllString(reason, "@\u200b$1")
}
