package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// Nodes that never belong to the lede prose: infoboxes, image thumbs and
// captions, hatnotes, reference markers, edit links, coordinates.
const nonProseSelector = `table, figure, figcaption, style, .infobox, .thumb,
	.thumbcaption, .hatnote, .navbox, .sidebar, .metadata, .ambox,
	.shortdescription, .mw-editsection, .mw-empty-elt, sup.reference,
	.reference, .reflist, #coordinates`

const maxFallbackRunes = 500

// Extractor isolates the first sentence of article prose from raw revision
// content. Identical input always yields identical output.
type Extractor struct {
	anchor Anchor
}

func New(anchor Anchor) *Extractor {
	if anchor == nil {
		anchor = FirstParagraph{}
	}
	return &Extractor{anchor: anchor}
}

// FirstSentence extracts the first sentence from content, which may be a
// rendered HTML fragment, a full HTML document, or raw wikitext. ok is false
// when no sentence can be confidently extracted; that is a gap, not an error.
func (e *Extractor) FirstSentence(content string) (sentence string, ok bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, "<") {
		return e.fromHTML(trimmed)
	}
	return e.fromWikitext(trimmed)
}

func (e *Extractor) fromHTML(content string) (string, bool) {
	// A full page first goes through readability to shed chrome; a parser
	// fragment already is article body.
	if strings.Contains(content, "<html") || strings.Contains(content, "<body") {
		pageURL, _ := url.Parse("https://en.wikipedia.org/")
		article, err := readability.FromReader(strings.NewReader(content), pageURL)
		if err != nil {
			return "", false
		}
		content = article.Content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", false
	}

	doc.Find(nonProseSelector).Remove()

	para := e.anchor.Locate(doc)
	if para == nil {
		return "", false
	}

	text := normalizeWhitespace(para.Text())
	if text == "" {
		return "", false
	}
	if s := cutFirstSentence(text); s != "" {
		return s, true
	}
	return truncateRunes(text, maxFallbackRunes), true
}

func normalizeWhitespace(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Known abbreviations whose trailing dot does not end a sentence.
var abbreviations = map[string]bool{
	"Mr.": true, "Mrs.": true, "Ms.": true, "Dr.": true, "Prof.": true,
	"St.": true, "Jr.": true, "Sr.": true, "No.": true, "Nos.": true,
	"c.": true, "ca.": true, "cf.": true, "vs.": true, "etc.": true,
	"approx.": true, "b.": true, "d.": true, "fl.": true,
}

// cutFirstSentence returns the leading sentence of text, or "" when no
// confident sentence boundary exists. A terminator counts only when followed
// by whitespace (or end of text) and, for periods, when the preceding token
// is not an abbreviation or a single-letter initial.
func cutFirstSentence(text string) string {
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if i+1 < len(text) && !isSpaceByte(text[i+1]) {
			continue
		}
		if ch == '.' && abbreviationBefore(text[:i+1]) {
			continue
		}
		if ch == '.' && lowercaseFollows(text[i+1:]) {
			continue
		}
		return strings.TrimSpace(text[:i+1])
	}
	return ""
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// lowercaseFollows reports whether the next word starts with a lowercase
// letter, which suggests the dot belonged to an in-sentence abbreviation.
func lowercaseFollows(rest string) bool {
	next := strings.TrimLeft(rest, " \t\n\r")
	if next == "" {
		return false
	}
	b := next[0]
	return b >= 'a' && b <= 'z'
}

func abbreviationBefore(prefix string) bool {
	start := strings.LastIndexByte(prefix, ' ') + 1
	token := prefix[start:]
	if abbreviations[token] {
		return true
	}
	// Single-letter initials like "J." in "J. R. R. Tolkien".
	if len(token) == 2 && token[1] == '.' &&
		token[0] >= 'A' && token[0] <= 'Z' {
		return true
	}
	return false
}
