// Package xmlprog is the external XML-program collaborator (spec §6):
// parsing a model file into a generic element tree is explicitly out of
// scope for the rewrite engine itself, but the engine still needs
// something to hand its loader. This package does the minimum job of
// turning XML into an attribute/child tree using stdlib encoding/xml —
// no third-party XML library in the pack offers anything encoding/xml
// doesn't already give a generic-tree reader (see DESIGN.md).
package xmlprog

import (
	"encoding/xml"
	"io"
)

// Element is a generic XML element: its tag, its attributes, and its
// child elements in document order. encoding/xml can unmarshal straight
// into this recursive shape via the ",any" struct tags.
type Element struct {
	XMLName xml.Name
	Attr    []xml.Attr `xml:",any,attr"`
	Nodes   []Element  `xml:",any"`
}

// Parse decodes r into an Element tree rooted at the document element.
func Parse(r io.Reader) (*Element, error) {
	var el Element
	if err := xml.NewDecoder(r).Decode(&el); err != nil {
		return nil, err
	}
	return &el, nil
}

// Tag returns the element's local tag name (namespace-stripped).
func (e *Element) Tag() string { return e.XMLName.Local }

// Get returns the named attribute's value and whether it was present.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// GetDefault returns the named attribute's value, or def if absent.
func (e *Element) GetDefault(name, def string) string {
	if v, ok := e.Get(name); ok {
		return v
	}
	return def
}

// Children returns the direct child elements with the given tag, in
// document order.
func (e *Element) Children(tag string) []*Element {
	var out []*Element
	for i := range e.Nodes {
		if e.Nodes[i].Tag() == tag {
			out = append(out, &e.Nodes[i])
		}
	}
	return out
}
