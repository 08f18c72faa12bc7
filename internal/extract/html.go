package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseHTML parses raw markup into a DOM tree. x/net/html is tolerant of
// malformed input, so "unparseable" for our purposes means the expected
// field containers are absent, not that parsing itself errors.
func parseHTML(data []byte) (*html.Node, error) {
	return html.Parse(bytes.NewReader(data))
}

// findElements collects all element nodes matching the given atom.
func findElements(n *html.Node, a atom.Atom, out *[]*html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == a {
		*out = append(*out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findElements(c, a, out)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// inputValue returns the value attribute of <input name="name">.
func inputValue(doc *html.Node, name string) string {
	var inputs []*html.Node
	findElements(doc, atom.Input, &inputs)
	for _, in := range inputs {
		if attrValue(in, "name") == name {
			return strings.TrimSpace(attrValue(in, "value"))
		}
	}
	return ""
}

// selectedOption returns the visible text of the selected <option> inside
// <select name="name">.
func selectedOption(doc *html.Node, name string) string {
	var selects []*html.Node
	findElements(doc, atom.Select, &selects)
	for _, sel := range selects {
		if attrValue(sel, "name") != name {
			continue
		}
		var options []*html.Node
		findElements(sel, atom.Option, &options)
		for _, opt := range options {
			if attrValue(opt, "selected") == "" && !hasAttr(opt, "selected") {
				continue
			}
			return strings.TrimSpace(collectText(opt))
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// textareaValue returns the inner text of <textarea name="name">.
func textareaValue(doc *html.Node, name string) string {
	var areas []*html.Node
	findElements(doc, atom.Textarea, &areas)
	for _, ta := range areas {
		if attrValue(ta, "name") == name {
			return strings.TrimSpace(collectText(ta))
		}
	}
	return ""
}

// hasFormFields reports whether the document contains any recognizable
// labeled-field container.
func hasFormFields(doc *html.Node) bool {
	for _, a := range []atom.Atom{atom.Input, atom.Select, atom.Textarea} {
		var nodes []*html.Node
		findElements(doc, a, &nodes)
		if len(nodes) > 0 {
			return true
		}
	}
	return false
}

// collectText concatenates all text nodes under n.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// blockAtoms are elements that terminate a text line when flattening.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Tr: true,
	atom.Table: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Section: true, atom.Article: true,
}

// flattenText converts a DOM tree into normalized plain-text lines. Block
// boundaries become newlines, table cells become single spaces, and runs of
// whitespace collapse within a line. Script/style subtrees are skipped.
func flattenText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript:
				return
			}
			if blockAtoms[n.DataAtom] {
				sb.WriteByte('\n')
			}
			if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
				sb.WriteByte(' ')
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
			sb.WriteByte('\n')
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// flattenHTMLString is flattenText over raw markup; on a parse failure the
// raw input is returned unchanged.
func flattenHTMLString(raw string) string {
	doc, err := parseHTML([]byte(raw))
	if err != nil {
		return raw
	}
	return flattenText(doc)
}
