package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderString serializes nodes in order.
func RenderString(nodes ...*html.Node) (string, error) {
	var b strings.Builder
	if err := Render(&b, nodes...); err != nil {
		return "", err
	}
	return b.String(), nil
}

func Render(w io.Writer, nodes ...*html.Node) error {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("render %s: %w", n.Data, err)
		}
	}
	return nil
}

func element(tag atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: tag,
		Data:     tag.String(),
		Attr:     attrs,
	}
}

// text nodes are escaped by html.Render, so untrusted strings only ever
// enter the tree through here.
func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func class(val string) html.Attribute {
	return attr("class", val)
}

func appendChildren(parent *html.Node, children ...*html.Node) *html.Node {
	for _, child := range children {
		if child != nil {
			parent.AppendChild(child)
		}
	}
	return parent
}

// wrap builds an element with a single text child.
func wrap(tag atom.Atom, content string, attrs ...html.Attribute) *html.Node {
	return appendChildren(element(tag, attrs...), text(content))
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
