// Package textproc provides text normalization and sentence extraction for
// document ingestion.
//
// Normalization lowercases text and collapses runs of whitespace so that
// identical content embeds identically. Sentence extraction splits on
// sentence terminators while protecting common abbreviations ("dr.",
// "e.g.") from being treated as boundaries.
package textproc

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	// Common abbreviations whose trailing period must not end a sentence.
	abbreviationRE = regexp.MustCompile(`(?i)\b(e\.g\.|i\.e\.|mr\.|mrs\.|dr\.|vs\.|prof\.|inc\.|etc\.)`)
	// A sentence boundary is a terminator followed by whitespace.
	boundaryRE = regexp.MustCompile(`[.!?]\s+`)
)

// dotPlaceholder temporarily stands in for periods inside protected
// abbreviations while boundaries are located.
const dotPlaceholder = "\x00"

// Normalize lowercases text, collapses all whitespace runs (including
// newlines and tabs) to single spaces, and trims the result.
// Empty input yields an empty string. Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// ExtractLeadSentences returns up to maxSentences leading sentences of text,
// in original order. Empty input or maxSentences <= 0 yields nil.
func ExtractLeadSentences(text string, maxSentences int) []string {
	if maxSentences <= 0 {
		return nil
	}
	sentences := splitSentences(text)
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	return sentences
}

// splitSentences splits text at sentence boundaries, keeping abbreviation
// periods intact. If boundary detection produces nothing for non-empty
// input, it degrades to a naive split on literal periods and logs that the
// degraded path was taken.
func splitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	protected := abbreviationRE.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, ".", dotPlaceholder)
	})

	var sentences []string
	start := 0
	for _, loc := range boundaryRE.FindAllStringIndex(protected, -1) {
		// The sentence ends just after the terminator character.
		end := loc[0] + 1
		if s := restoreSentence(protected[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := restoreSentence(protected[start:]); s != "" {
		sentences = append(sentences, s)
	}

	if len(sentences) == 0 {
		slog.Warn("sentence boundary detection produced no sentences, falling back to naive period split")
		return naiveSplit(text)
	}
	return sentences
}

func restoreSentence(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, dotPlaceholder, "."))
}

// naiveSplit is the degraded splitter: literal periods, no abbreviation
// protection.
func naiveSplit(text string) []string {
	parts := strings.Split(text, ".")
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part+".")
		}
	}
	return sentences
}
