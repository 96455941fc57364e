package handlers

import (
	"regexp"
	"strings"
	"unicode"
)

// Whitespace here also covers Unicode separators and the BOM, which LINE
// clients insert around mentions.
var (
	mentionPrefixRe = regexp.MustCompile(`@\w+[\s\v\p{Z}\x{FEFF}]*`)
	markerRe        = regexp.MustCompile(`^![\s\v\p{Z}\x{FEFF}]*`)
)

// IsMentioned reports whether text contains "@"+botName, ignoring case.
// This is a plain substring test, so "@botty" also mentions "bot".
func IsMentioned(text, botName string) bool {
	return strings.Contains(strings.ToLower(text), "@"+strings.ToLower(botName))
}

// CleanPrompt strips the first @mention anywhere in text, then one leading
// "!" marker, then surrounding whitespace. Later mentions are left in place.
func CleanPrompt(text string) string {
	if loc := mentionPrefixRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[1]:]
	}
	text = markerRe.ReplaceAllString(text, "")
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}
