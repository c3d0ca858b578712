package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Anchor locates the paragraph where real article prose begins. The right
// heuristic is article-specific, so it is injected rather than hardcoded.
type Anchor interface {
	Locate(doc *goquery.Document) *goquery.Selection
}

// FirstParagraph picks the first paragraph with any text left after the
// non-prose nodes have been stripped.
type FirstParagraph struct{}

func (FirstParagraph) Locate(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == "" {
			return true
		}
		found = s
		return false
	})
	return found
}

// PhraseAnchor picks the first paragraph containing one of the expected
// opening phrases, falling back to the first non-empty paragraph. Useful for
// articles whose lede is preceded by stray prose (disambiguation remnants,
// misplaced captions).
type PhraseAnchor struct {
	Phrases []string
}

func (a PhraseAnchor) Locate(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		for _, phrase := range a.Phrases {
			if phrase != "" && strings.Contains(text, phrase) {
				found = s
				return false
			}
		}
		return true
	})
	if found != nil {
		return found
	}
	return FirstParagraph{}.Locate(doc)
}
