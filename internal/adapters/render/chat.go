package render

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

// Sanitizer turns assistant Markdown into safe HTML. Implementations are
// expected to remove scripts and inline event handlers.
type Sanitizer interface {
	Sanitize(markdown string) (string, error)
}

// Renderer renders chat turns. Without a Sanitizer answers are shown as
// escaped plain text.
type Renderer struct {
	sanitizer Sanitizer
}

func NewRenderer(sanitizer Sanitizer) *Renderer {
	return &Renderer{sanitizer: sanitizer}
}

func (r *Renderer) ChatMessage(turn domain.ChatTurn) *html.Node {
	classes := "message " + string(turn.Role) + "-message"
	if turn.Failed {
		classes += " failed"
	}
	msg := element(atom.Div, class(classes))

	content := element(atom.Div, class("message-content"))
	if turn.Role == domain.RoleAssistant && !turn.Failed {
		r.appendAnswer(content, turn.Text)
	} else {
		content.AppendChild(text(turn.Text))
	}
	msg.AppendChild(content)

	if len(turn.Citations) > 0 {
		refs := appendChildren(element(atom.Div, class("references")),
			wrap(atom.Div, "References", class("reference-title")),
		)
		for _, c := range turn.Citations {
			refs.AppendChild(wrap(atom.Div, c.Snippet,
				class("reference-item"),
				attr("data-source-index", strconv.Itoa(c.SourceIndex)),
			))
		}
		msg.AppendChild(refs)
	}
	return msg
}

func (r *Renderer) Transcript(turns []domain.ChatTurn) *html.Node {
	container := element(atom.Div, class("chat-messages"), attr("id", "chat-messages"))
	if len(turns) == 0 {
		container.AppendChild(wrap(atom.P, "Ask a question to start the conversation.", class("placeholder")))
		return container
	}
	for _, turn := range turns {
		container.AppendChild(r.ChatMessage(turn))
	}
	return container
}

func (r *Renderer) appendAnswer(parent *html.Node, answer string) {
	if r == nil || r.sanitizer == nil {
		parent.AppendChild(text(answer))
		return
	}
	sanitized, err := r.sanitizer.Sanitize(answer)
	if err != nil {
		parent.AppendChild(text(answer))
		return
	}
	nodes, err := html.ParseFragment(strings.NewReader(sanitized), element(atom.Div))
	if err != nil {
		parent.AppendChild(text(answer))
		return
	}
	for _, n := range nodes {
		if stripUnsafe(n) {
			parent.AppendChild(n)
		}
	}
}

var unsafeElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Form:     true,
	atom.Base:     true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Svg:      true,
	atom.Math:     true,
}

// urlAttributes hold a URL that a browser may navigate to or fetch.
var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"srcset":     true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"background": true,
	"cite":       true,
	"data":       true,
}

// safeURL accepts relative URLs and the http, https and mailto schemes.
// Whitespace and control characters are dropped first, as browsers ignore
// them inside a scheme.
func safeURL(raw string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	end := strings.IndexAny(cleaned, ":/?#")
	if end < 0 || cleaned[end] != ':' {
		return true
	}
	switch strings.ToLower(cleaned[:end]) {
	case "http", "https", "mailto":
		return true
	default:
		return false
	}
}

// stripUnsafe removes executable content from n in place and reports whether
// n itself may be kept.
func stripUnsafe(n *html.Node) bool {
	if n.Type == html.ElementNode && unsafeElements[n.DataAtom] {
		return false
	}
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") || key == "style" {
				continue
			}
			if urlAttributes[key] && !safeURL(a.Val) {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if !stripUnsafe(c) {
			n.RemoveChild(c)
		}
		c = next
	}
	return true
}
