package index

import (
	"fmt"
	"strings"
)

// NoMatchesContext is the context block callers substitute when
// retrieval finds nothing. It reaches the language model verbatim.
const NoMatchesContext = "No relevant documents found."

// FormatContext renders matches into the context block fed to the chat
// model. Each match becomes one line of the form
//
//	<title>: <summary> (score: 0.87)
//
// with lines separated by blank lines. Titles and summaries both fall
// back to the stored record text when the metadata is incomplete, with
// "untitled" as the last resort. No matches yields an empty string;
// callers substitute NoMatchesContext before building a prompt.
func FormatContext(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		title := m.Metadata["title"]
		if title == "" {
			title = m.Metadata["text"]
		}
		if title == "" {
			title = "untitled"
		}
		summary := m.Metadata["summary"]
		if summary == "" {
			summary = m.Metadata["text"]
		}
		lines = append(lines, fmt.Sprintf("%s: %s (score: %.2f)", title, summary, m.Score))
	}
	return strings.Join(lines, "\n\n")
}
