// Package markup wraps goquery behind tag-and-attribute lookups so the
// rest of the pipeline never touches CSS selectors.
//
// EDGAR serves two kinds of documents we care about: HTML listing pages
// and XBRL instance documents full of namespaced elements such as
// us-gaap:Revenues. The HTML parser lowercases every tag name and
// attribute key it sees, so contextRef arrives as contextref and
// us-gaap:Revenues as us-gaap:revenues. A colon in a CSS selector means
// pseudo-class, not namespace; finders here walk the node tree and
// compare names directly instead of round-tripping through selectors.
package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed markup tree.
type Document struct {
	sel *goquery.Selection
}

// Node is a single element in a parsed tree. Finders on a Node are
// scoped to its subtree.
type Node struct {
	sel *goquery.Selection
}

// Parse builds a Document from raw bytes. The parser is permissive:
// broken listing pages and XML-flavored instance documents both come
// back as a best-effort tree rather than an error.
func Parse(data []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	return &Document{sel: doc.Selection}, nil
}

// Find returns the first element with the given tag name whose
// attributes contain every entry of attrs, or nil if none matches.
// Tag and attribute keys are compared lowercased, mirroring what the
// parser stores; attribute values are compared exactly.
func (d *Document) Find(tag string, attrs map[string]string) *Node {
	return findFirst(d.sel, tag, attrs)
}

// FindAll returns every matching element in document order.
func (d *Document) FindAll(tag string, attrs map[string]string) []*Node {
	return findAll(d.sel, tag, attrs)
}

// FindAllMatching returns every element whose tag name matches re, in
// document order.
func (d *Document) FindAllMatching(re *regexp.Regexp) []*Node {
	return findMatching(d.sel, re)
}

// Find returns the first matching element within n's subtree, or nil.
func (n *Node) Find(tag string, attrs map[string]string) *Node {
	return findFirst(n.sel, tag, attrs)
}

// FindAll returns every matching element within n's subtree.
func (n *Node) FindAll(tag string, attrs map[string]string) []*Node {
	return findAll(n.sel, tag, attrs)
}

// FindAllMatching returns every element in n's subtree whose tag name
// matches re.
func (n *Node) FindAllMatching(re *regexp.Regexp) []*Node {
	return findMatching(n.sel, re)
}

// Name returns the element's tag name as the parser stored it
// (lowercase, namespace prefix intact).
func (n *Node) Name() string {
	return goquery.NodeName(n.sel)
}

// Text returns the element's text content with surrounding whitespace
// trimmed.
func (n *Node) Text() string {
	return strings.TrimSpace(n.sel.Text())
}

// Attrs returns the element's attributes. Keys are parser-lowercased.
func (n *Node) Attrs() map[string]string {
	out := make(map[string]string)
	if len(n.sel.Nodes) == 0 {
		return out
	}
	for _, a := range n.sel.Nodes[0].Attr {
		out[a.Key] = a.Val
	}
	return out
}

// AttrOr returns the attribute's value, or fallback when absent.
func (n *Node) AttrOr(key, fallback string) string {
	return n.sel.AttrOr(strings.ToLower(key), fallback)
}

func findFirst(scope *goquery.Selection, tag string, attrs map[string]string) *Node {
	nodes := collect(scope, tag, attrs, 1)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func findAll(scope *goquery.Selection, tag string, attrs map[string]string) []*Node {
	return collect(scope, tag, attrs, 0)
}

func collect(scope *goquery.Selection, tag string, attrs map[string]string, limit int) []*Node {
	tag = strings.ToLower(tag)
	var out []*Node
	scope.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !matches(s, tag, attrs) {
			return true
		}
		out = append(out, &Node{sel: s})
		return limit <= 0 || len(out) < limit
	})
	return out
}

func matches(s *goquery.Selection, tag string, attrs map[string]string) bool {
	if goquery.NodeName(s) != tag {
		return false
	}
	for key, want := range attrs {
		got, ok := s.Attr(strings.ToLower(key))
		if !ok || got != want {
			return false
		}
	}
	return true
}

func findMatching(scope *goquery.Selection, re *regexp.Regexp) []*Node {
	var out []*Node
	scope.Find("*").Each(func(_ int, s *goquery.Selection) {
		if re.MatchString(goquery.NodeName(s)) {
			out = append(out, &Node{sel: s})
		}
	})
	return out
}
