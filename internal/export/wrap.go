package export

import "strings"

// WrapText packs the space-separated words of text into lines whose measured
// width stays within maxWidth. A word wider than maxWidth on its own gets a
// line to itself.
func WrapText(text string, maxWidth float64, width func(string) float64) []string {
	var (
		lines   []string
		current string
	)
	for _, word := range strings.Split(text, " ") {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if width(candidate) > maxWidth && current != "" {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
