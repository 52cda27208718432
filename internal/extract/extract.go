// Package extract reduces raw HTML to the text most likely to carry factual
// claims. Boilerplate elements are stripped, then the longest content blocks
// are concatenated into a bounded query string.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// minBlockWords filters out navigation crumbs, captions and stray labels.
	minBlockWords = 10

	// maxBlocks bounds how many content blocks feed the query.
	maxBlocks = 20

	// maxQueryChars caps the assembled query length.
	maxQueryChars = 1000
)

// removeSelector matches elements that never carry article content.
const removeSelector = "script, style, nav, header, footer, aside, form, noscript, iframe, svg, button"

// contentSelector matches elements that typically carry prose.
const contentSelector = "p, h1, h2, h3, h4, h5, h6, li, td, th, blockquote, pre, article, section"

// fallbackSelector is consulted only when contentSelector yields nothing,
// for pages built entirely out of generic containers.
const fallbackSelector = "div, span"

// Query extracts a bounded claim-bearing query from an HTML document.
// The empty string means no usable content was found; malformed HTML is
// handled leniently rather than rejected.
func Query(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find(removeSelector).Remove()

	blocks := collectBlocks(doc, contentSelector)
	if len(blocks) == 0 {
		blocks = collectBlocks(doc, fallbackSelector)
	}
	if len(blocks) == 0 {
		return "", nil
	}

	// Longest blocks first, keeping insertion order among equals.
	sortByLengthDesc(blocks)
	if len(blocks) > maxBlocks {
		blocks = blocks[:maxBlocks]
	}

	return truncate(strings.Join(blocks, ". "), maxQueryChars), nil
}

func collectBlocks(doc *goquery.Document, selector string) []string {
	var blocks []string
	seen := make(map[string]struct{})
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		// Containers count as blocks only when they hold no finer-grained
		// content, otherwise their text would double the nested blocks.
		if sel.Is("article, section, div") && sel.Find(contentSelector).Length() > 0 {
			return
		}
		text := normalizeSpace(sel.Text())
		if len(strings.Fields(text)) < minBlockWords {
			return
		}
		// Nested selectors surface the same text at several levels.
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		blocks = append(blocks, text)
	})
	return blocks
}

// sortByLengthDesc is a stable insertion sort. Block counts are small and
// stability keeps the document order among equally long blocks.
func sortByLengthDesc(blocks []string) {
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0 && len(blocks[j]) > len(blocks[j-1]); j-- {
			blocks[j], blocks[j-1] = blocks[j-1], blocks[j]
		}
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
