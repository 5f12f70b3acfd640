package dom

import (
	"strings"

	"fieldprobe/internal/entity"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FindByText returns light-tree elements whose own text, placeholder or title
// contains keyword, ignoring case.
func FindByText(root *html.Node, keyword string) []*html.Node {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}

	var out []*html.Node

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}

		switch n.DataAtom {
		// Head text such as <title> is never a field label.
		case atom.Script, atom.Style, atom.Template, atom.Head:
			return false
		}

		if containsFold(OwnText(n), needle) ||
			containsFold(Attr(n, "placeholder"), needle) ||
			containsFold(Attr(n, "title"), needle) {
			out = append(out, n)
		}

		return true
	})

	return out
}

// FindByKeywords merges FindByText over keywords, keeping first-seen order.
func FindByKeywords(root *html.Node, keywords []string) []*html.Node {
	seen := make(map[*html.Node]struct{})

	var out []*html.Node

	for _, kw := range keywords {
		for _, n := range FindByText(root, kw) {
			if _, ok := seen[n]; ok {
				continue
			}

			seen[n] = struct{}{}
			out = append(out, n)
		}
	}

	return out
}

// FormControls splits input/select/textarea/button elements between the light
// tree and declarative shadow roots.
type FormControls struct {
	Main   []*html.Node
	Shadow []*html.Node
}

func (f FormControls) Totals() entity.ControlTotals {
	return entity.ControlTotals{
		Main:   len(f.Main),
		Shadow: len(f.Shadow),
		Total:  len(f.Main) + len(f.Shadow),
	}
}

func (p *Page) FormControls() FormControls {
	main := p.MustQuery(FormSelector)

	shadow, err := p.Shadow(FormSelector)
	if err != nil {
		panic(err)
	}

	return FormControls{Main: main, Shadow: shadow}
}

// ProbeSelectors runs each selector and keeps the ones with hits. Selectors
// that fail to compile are skipped.
func (p *Page) ProbeSelectors(selectors []string, sample int) []entity.SelectorHit {
	var hits []entity.SelectorHit

	for _, sel := range selectors {
		nodes, err := p.Query(sel)
		if err != nil || len(nodes) == 0 {
			continue
		}

		hits = append(hits, entity.SelectorHit{
			Selector: sel,
			Count:    len(nodes),
			Sample:   DescribeAll(nodes, sample),
		})
	}

	return hits
}

// AttributePatterns returns, per pattern, the elements whose attr contains it
// ignoring case. Patterns without hits are dropped.
func (p *Page) AttributePatterns(attr string, patterns []string) []entity.PatternHits {
	var out []entity.PatternHits

	for _, pattern := range patterns {
		needle := strings.ToLower(pattern)

		var nodes []*html.Node

		walk(p.Root(), func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.DataAtom == atom.Template {
				return false
			}

			if n.Type == html.ElementNode && HasAttr(n, attr) && containsFold(Attr(n, attr), needle) {
				nodes = append(nodes, n)
			}

			return true
		})

		if len(nodes) == 0 {
			continue
		}

		out = append(out, entity.PatternHits{
			Attribute: attr,
			Pattern:   pattern,
			Elements:  DescribeAll(nodes, 0),
		})
	}

	return out
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
