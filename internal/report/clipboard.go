package report

import "strings"

// ClipboardHTML converts report text into the paragraph markup pasted into
// word processors: every line becomes a <p>, and header lines get a leading
// <br> so sections stay visually separated.
func ClipboardHTML(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if isHeader(line) {
			b.WriteString("<p><br>")
		} else {
			b.WriteString("<p>")
		}
		b.WriteString(line)
		b.WriteString("</p>")
	}
	return b.String()
}
