// Package scrape locates HTML elements by class and finds anchors using plain
// pattern search over raw markup. It never builds a document tree.
package scrape

// Attr is a single quoted name/value pair taken from an opening tag.
type Attr struct {
	Name  string
	Value string
}

// Element is a matched tag with its attributes and trimmed inner markup.
// Values are immutable once returned; Attrs returns a copy.
type Element struct {
	tagName string
	attrs   []Attr
	content string
}

func newElement(tagName string, attrs []Attr, content string) Element {
	return Element{tagName: tagName, attrs: attrs, content: content}
}

// TagName returns the tag name as written in the opening tag.
func (e Element) TagName() string { return e.tagName }

// Attrs returns the attributes in source order. Repeated names are kept.
func (e Element) Attrs() []Attr {
	if len(e.attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Attr returns the value of the first attribute named exactly name.
func (e Element) Attr(name string) (string, bool) {
	return lookupAttr(e.attrs, name)
}

// Content returns the markup between the opening and closing tag with
// surrounding whitespace removed. Nested markup is left untouched.
func (e Element) Content() string { return e.content }

func lookupAttr(attrs []Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
