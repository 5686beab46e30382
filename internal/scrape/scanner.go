package scrape

import (
	"regexp"
)

var (
	// openTagRe matches an opening tag and splits it into name and raw attribute text.
	openTagRe = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)\s*([^>]*)>`)
	// attrRe matches name="value" or name='value'. Unquoted and boolean
	// attributes are skipped.
	attrRe = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// openTag is one opening tag located by nextOpenTag. start and end are byte
// offsets into the scanned document.
type openTag struct {
	name  string
	attrs string
	start int
	end   int
}

// nextOpenTag finds the first opening tag at or after from.
func nextOpenTag(doc string, from int) (openTag, bool) {
	if from >= len(doc) {
		return openTag{}, false
	}
	loc := openTagRe.FindStringSubmatchIndex(doc[from:])
	if loc == nil {
		return openTag{}, false
	}
	return openTag{
		name:  doc[from+loc[2] : from+loc[3]],
		attrs: doc[from+loc[4] : from+loc[5]],
		start: from + loc[0],
		end:   from + loc[1],
	}, true
}

// parseAttrs returns the quoted attributes of raw in order of appearance.
// Entities are not decoded.
func parseAttrs(raw string) []Attr {
	if raw == "" {
		return nil
	}
	matches := attrRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(matches))
	for _, m := range matches {
		// The double-quoted group is empty when the value used single quotes.
		value := m[2]
		if m[3] != "" {
			value = m[3]
		}
		attrs = append(attrs, Attr{Name: m[1], Value: value})
	}
	return attrs
}
