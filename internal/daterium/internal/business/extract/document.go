package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const entryTag = "ficha"

var ErrMalformed = errors.New("malformed payload")

var encodingDeclRe = regexp.MustCompile(`^<\?xml[^>]*encoding\s*=\s*["']([A-Za-z0-9._-]+)["']`)

// ParseDocument parses a search response and returns every entry node in document order.
// Declared charsets are handled by the XML decoder; undeclared non-UTF-8 payloads
// are read as Windows-1252.
func ParseDocument(body []byte) ([]*xmlquery.Node, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	var r io.Reader = bytes.NewReader(body)
	if !utf8.Valid(body) && declaresUTF8(body) {
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}

	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return descendants(doc, entryTag), nil
}

// declaresUTF8 reports whether the prolog is missing an encoding or names UTF-8.
func declaresUTF8(body []byte) bool {
	head := body
	if len(head) > 256 {
		head = head[:256]
	}
	m := encodingDeclRe.FindSubmatch(head)
	if m == nil {
		return true
	}
	enc := strings.ToLower(string(m[1]))
	return enc == "utf-8" || enc == "utf8"
}

func isElement(n *xmlquery.Node, tag string) bool {
	return n.Type == xmlquery.ElementNode && strings.EqualFold(n.Data, tag)
}

// zeroOrMore returns the direct children named tag.
func zeroOrMore(n *xmlquery.Node, tag string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tag) {
			out = append(out, c)
		}
	}
	return out
}

// optionalSingle returns the trimmed text of the first direct child named tag
// holding non-blank text.
func optionalSingle(n *xmlquery.Node, tag string) (string, bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !isElement(c, tag) {
			continue
		}
		if text := strings.TrimSpace(c.InnerText()); text != "" {
			return text, true
		}
	}
	return "", false
}

// descendants returns every element named tag below n, depth first.
func descendants(n *xmlquery.Node, tag string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if strings.EqualFold(c.Data, tag) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			if v := strings.TrimSpace(a.Value); v != "" {
				return v, true
			}
		}
	}
	return "", false
}
