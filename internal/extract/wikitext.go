package extract

import (
	"html"
	"regexp"
	"strings"
)

var (
	reTemplate  = regexp.MustCompile(`(?s)\{\{[^{}]*\}\}`)
	reComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	reFileLink  = regexp.MustCompile(`(?is)\[\[(?:File|Image):.*?\]\]`)
	reRefPaired = regexp.MustCompile(`(?is)<ref[^>]*>.*?</ref>`)
	reRefSelf   = regexp.MustCompile(`(?i)<ref[^>]*/?>`)
	reWikiLink  = regexp.MustCompile(`\[\[(?:[^|\]]*\|)?([^\]]+)\]\]`)
	reQuoteMark = regexp.MustCompile(`'{2,}`)
	reHTMLTag   = regexp.MustCompile(`<[^>]+>`)
)

// fromWikitext handles raw wiki markup, for caches built before rendered
// HTML was available and for revisions fetched as wikitext.
func (e *Extractor) fromWikitext(content string) (string, bool) {
	text := content

	// Templates nest; strip innermost-first until stable.
	for i := 0; i < 10; i++ {
		stripped := reTemplate.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}

	text = reComment.ReplaceAllString(text, "")
	text = reFileLink.ReplaceAllString(text, "")
	text = reRefPaired.ReplaceAllString(text, "")
	text = reRefSelf.ReplaceAllString(text, "")
	text = reWikiLink.ReplaceAllString(text, "$1")
	text = reQuoteMark.ReplaceAllString(text, "")
	text = reHTMLTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	line := firstProseLine(text)
	if line == "" {
		return "", false
	}
	line = normalizeWhitespace(line)

	if s := cutFirstSentence(line); s != "" {
		return s, true
	}
	return truncateRunes(line, maxFallbackRunes), true
}

// firstProseLine skips headings, table rows and leftover markup lines.
func firstProseLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line[0] {
		case '=', '{', '|', '!', '*', '#', ':', ';':
			continue
		}
		return line
	}
	return ""
}
