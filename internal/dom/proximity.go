package dom

import (
	"fieldprobe/internal/entity"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultRadius is used when the caller passes a non-positive radius.
const DefaultRadius = 3

type Match struct {
	Control   *html.Node
	Direction entity.Direction
	Distance  int
}

// NearbyControls guesses which controls belong to label by walking forward
// siblings, backward siblings and then ancestors, each up to radius steps.
//
// Matches are returned in discovery order and are not deduplicated across
// directions. Within the ancestor scan a control is reported once, at the
// first level that reaches it.
func NearbyControls(label *html.Node, radius int) []Match {
	if label == nil {
		return nil
	}

	if radius <= 0 {
		radius = DefaultRadius
	}

	var matches []Match

	current := nextElement(label)
	for hop := 1; hop <= radius && current != nil; hop++ {
		if IsControl(current) {
			matches = append(matches, Match{Control: current, Direction: entity.DirectionNext, Distance: hop})
		}

		current = nextElement(current)
	}

	current = previousElement(label)
	for hop := 1; hop <= radius && current != nil; hop++ {
		if IsControl(current) {
			matches = append(matches, Match{Control: current, Direction: entity.DirectionPrevious, Distance: hop})
		}

		current = previousElement(current)
	}

	seen := make(map[*html.Node]struct{})
	parent := parentElement(label)
	for level := 1; level <= radius && parent != nil; level++ {
		for _, c := range controlsUnder(parent) {
			if c == label {
				continue
			}

			if _, ok := seen[c]; ok {
				continue
			}

			seen[c] = struct{}{}
			matches = append(matches, Match{Control: c, Direction: entity.DirectionAncestor, Distance: level})
		}

		parent = parentElement(parent)
	}

	return matches
}

func DescribeMatches(matches []Match) []entity.MatchInfo {
	out := make([]entity.MatchInfo, 0, len(matches))
	for _, m := range matches {
		out = append(out, entity.MatchInfo{
			Control:   Describe(m.Control),
			Direction: m.Direction,
			Distance:  m.Distance,
		})
	}

	return out
}

func controlsUnder(root *html.Node) []*html.Node {
	var out []*html.Node

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.DataAtom == atom.Template {
				return false
			}

			if IsControl(n) {
				out = append(out, n)
			}

			return true
		})
	}

	return out
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}

	return nil
}

func previousElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}

	return nil
}

// parentElement stops at the document node, which is not an element.
func parentElement(n *html.Node) *html.Node {
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		return p
	}

	return nil
}
