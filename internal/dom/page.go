package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Control and button selectors used across the analysis.
const (
	ControlSelector     = "input, select, textarea"
	FormSelector        = "input, select, textarea, button"
	SubmitSelector      = `button, input[type="submit"]`
	ButtonSelector      = `button, input[type="submit"], input[type="button"], a[role="button"]`
	ContainerSelector   = "div, section, article, main"
	TextElementSelector = "label, span, div"
)

// Page is a parsed document. Queries only see the light tree: template
// contents, including declarative shadow roots, are reachable through Shadow.
type Page struct {
	doc *goquery.Document
}

func NewPage(markup string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Page{doc: doc}, nil
}

func (p *Page) Root() *html.Node {
	return p.doc.Selection.Nodes[0]
}

func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Query returns light-tree elements matching selector in document order.
func (p *Page) Query(selector string) ([]*html.Node, error) {
	return QueryWithin(p.Root(), selector)
}

// MustQuery is Query for selectors known at compile time.
func (p *Page) MustQuery(selector string) []*html.Node {
	nodes, err := p.Query(selector)
	if err != nil {
		panic(err)
	}

	return nodes
}

// ByID returns the first light-tree element whose id equals id, or nil.
func (p *Page) ByID(id string) *html.Node {
	var found *html.Node

	walk(p.Root(), func(n *html.Node) bool {
		if found != nil {
			return false
		}

		if n.Type == html.ElementNode && n.DataAtom == atom.Template {
			return false
		}

		if n.Type == html.ElementNode && Attr(n, "id") == id {
			found = n
			return false
		}

		return true
	})

	return found
}

// Shadow returns elements matching selector inside declarative shadow roots.
func (p *Page) Shadow(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}

	var out []*html.Node

	for _, n := range sel.MatchAll(p.Root()) {
		if inShadowRoot(n) {
			out = append(out, n)
		}
	}

	return out, nil
}

// QueryWithin runs selector against the light-tree descendants of root.
func QueryWithin(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}

	matched := goquery.NewDocumentFromNode(root).FindMatcher(sel).Nodes
	out := make([]*html.Node, 0, len(matched))

	for _, n := range matched {
		if n == root || inTemplate(n, root) {
			continue
		}

		out = append(out, n)
	}

	return out, nil
}

func mustQueryWithin(root *html.Node, selector string) []*html.Node {
	nodes, err := QueryWithin(root, selector)
	if err != nil {
		panic(err)
	}

	return nodes
}

func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}

	return ""
}

func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return true
		}
	}

	return false
}

// TextContent concatenates every descendant text node.
func TextContent(n *html.Node) string {
	var b strings.Builder

	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}

		return true
	})

	return b.String()
}

// OwnText concatenates the direct text children of n.
func OwnText(n *html.Node) string {
	var b strings.Builder

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}

	return b.String()
}

func TagName(n *html.Node) string {
	return strings.ToUpper(n.Data)
}

func isElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// walk visits n and its descendants depth first; fn returning false skips the subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func inTemplate(n, stop *html.Node) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Template {
			return true
		}
	}

	return false
}

func inShadowRoot(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Template &&
			(HasAttr(p, "shadowrootmode") || HasAttr(p, "shadowroot")) {
			return true
		}
	}

	return false
}
