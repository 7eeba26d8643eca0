package provider

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractCaptionText pulls transcript text out of an HTML caption page.
// Some mirror endpoints serve transcripts as rendered HTML rather than
// JSON; caption lines sit in cue elements with timestamps alongside.
func ExtractCaptionText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse caption HTML: %w", err)
	}

	doc.Find("script, style, noscript, .timestamp, .cue-time").Remove()

	var lines []string
	selection := doc.Find(".cue, .caption-line, [data-cue]")
	if selection.Length() == 0 {
		selection = doc.Find("p")
	}
	selection.Each(func(_ int, s *goquery.Selection) {
		line := strings.TrimSpace(s.Text())
		if line != "" {
			lines = append(lines, line)
		}
	})

	if len(lines) == 0 {
		return "", fmt.Errorf("no caption text found in HTML")
	}
	return strings.Join(lines, " "), nil
}
