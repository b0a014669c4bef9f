package runner

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

var markdownTags = strings.NewReplacer(
	"<b>", "**", "</b>", "**",
	"<i>", "_", "</i>", "_",
)

// ToMarkdown converts the reply HTML subset (<b>, <i>) to Markdown.
func ToMarkdown(s string) string {
	s = markdownTags.Replace(s)
	s = tagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// ToPlain strips reply markup.
func ToPlain(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
