package scrape

import (
	"regexp"
	"strings"
)

var (
	anchorOpenRe       = regexp.MustCompile(`<a\s*([^>]*)>`)
	strictAnchorOpenRe = regexp.MustCompile(`<a(?:\s+([^>]*))?>`)
	anchorCloseRe      = regexp.MustCompile(`</a\s*>`)
)

// Options tunes how the scanner recognises tags.
type Options struct {
	// StrictTagBoundary requires a nested opening tag to be followed by
	// whitespace, '/' or '>' before it counts towards the nesting depth, and
	// requires the first-anchor search to match a tag named exactly "a".
	// When false, "<div" also matches the start of "<divider>" and "<a"
	// matches "<abbr>", which is the historical behaviour.
	StrictTagBoundary bool
}

// Scanner runs element searches with a fixed set of Options. A Scanner holds
// no per-call state and is safe for concurrent use.
type Scanner struct {
	opts Options
}

// New returns a Scanner using opts.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

var defaultScanner = New(Options{})

// FindElementsByClass returns every element in document whose class list
// contains className, in document order. See Scanner.ElementsByClass.
func FindElementsByClass(document, className string) []Element {
	return defaultScanner.ElementsByClass(document, className)
}

// FindFirstAnchor returns the first <a> element in fragment.
// See Scanner.FirstAnchor.
func FindFirstAnchor(fragment string) (Element, bool) {
	return defaultScanner.FirstAnchor(fragment)
}

// ElementsByClass scans document for opening tags whose class attribute holds
// className as a whole whitespace-separated token and captures the balanced
// content up to the matching closing tag.
//
// A tag that does not match only skips its own opening tag, so matching
// descendants of non-matching ancestors are still found. After a match the
// scan resumes past its closing tag: same-class elements nested in a match are
// only reachable by calling ElementsByClass again on its Content. Candidates
// without a balanced closing tag are dropped.
func (s *Scanner) ElementsByClass(document, className string) []Element {
	if document == "" || className == "" {
		return nil
	}
	var out []Element
	pos := 0
	for {
		tag, ok := nextOpenTag(document, pos)
		if !ok {
			break
		}
		attrs := parseAttrs(tag.attrs)
		if hasClass(attrs, className) {
			if contentEnd, next, ok := s.balance(document, tag); ok {
				content := strings.TrimSpace(document[tag.end:contentEnd])
				out = append(out, newElement(tag.name, attrs, content))
				pos = next
				continue
			}
		}
		pos = tag.end
	}
	return out
}

// balance walks forward from the end of tag counting "<name" prefixes and
// "</name>" closers, whichever comes first, until the depth returns to zero.
// It returns the offset of the matching closing tag and the offset just past it.
func (s *Scanner) balance(document string, tag openTag) (contentEnd, next int, ok bool) {
	open := "<" + tag.name
	closing := "</" + tag.name + ">"
	depth := 1
	pos := tag.end
	for pos < len(document) {
		rest := document[pos:]
		o := s.indexOpen(rest, open)
		c := strings.Index(rest, closing)
		switch {
		case c < 0:
			return 0, 0, false
		case o >= 0 && o < c:
			depth++
			pos += o + 1
		default:
			depth--
			if depth == 0 {
				return pos + c, pos + c + len(closing), true
			}
			pos += c + len(closing)
		}
	}
	return 0, 0, false
}

func (s *Scanner) indexOpen(rest, prefix string) int {
	if !s.opts.StrictTagBoundary {
		return strings.Index(rest, prefix)
	}
	off := 0
	for {
		i := strings.Index(rest[off:], prefix)
		if i < 0 {
			return -1
		}
		after := off + i + len(prefix)
		if after >= len(rest) || isTagBoundary(rest[after]) {
			return off + i
		}
		off += i + 1
	}
}

func isTagBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '/', '>':
		return true
	}
	return false
}

// FirstAnchor returns the first <a ...> element in fragment, ending at the
// first "</a>" after it. Nesting is not tracked.
func (s *Scanner) FirstAnchor(fragment string) (Element, bool) {
	if fragment == "" {
		return Element{}, false
	}
	re := anchorOpenRe
	if s.opts.StrictTagBoundary {
		re = strictAnchorOpenRe
	}
	loc := re.FindStringSubmatchIndex(fragment)
	if loc == nil {
		return Element{}, false
	}
	var raw string
	if loc[2] >= 0 {
		raw = fragment[loc[2]:loc[3]]
	}
	after := fragment[loc[1]:]
	closeLoc := anchorCloseRe.FindStringIndex(after)
	if closeLoc == nil {
		return Element{}, false
	}
	return newElement("a", parseAttrs(raw), strings.TrimSpace(after[:closeLoc[0]])), true
}

func hasClass(attrs []Attr, className string) bool {
	v, ok := lookupAttr(attrs, "class")
	if !ok {
		return false
	}
	for _, token := range strings.Fields(v) {
		if token == className {
			return true
		}
	}
	return false
}
