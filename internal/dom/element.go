package dom

import (
	"strconv"
	"strings"

	"fieldprobe/internal/entity"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Annotations written by the live snapshot script. They carry rendered-box
// visibility and property values that plain markup cannot express.
const (
	AttrProbeVisible = "data-probe-visible"
	AttrProbeValue   = "data-probe-value"
)

const textLimit = 100

func IsControl(n *html.Node) bool {
	if !isElement(n) {
		return false
	}

	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
		return true
	}

	return false
}

func Describe(n *html.Node) entity.ElementInfo {
	info := entity.ElementInfo{
		Tag:         TagName(n),
		ID:          Attr(n, "id"),
		Name:        Attr(n, "name"),
		Type:        ElementType(n),
		Class:       Attr(n, "class"),
		Value:       Value(n),
		Placeholder: Attr(n, "placeholder"),
		Title:       Attr(n, "title"),
		Text:        Truncate(strings.TrimSpace(TextContent(n)), textLimit),
		Src:         Attr(n, "src"),
		Href:        Attr(n, "href"),
		Visible:     Visible(n),
		Enabled:     !HasAttr(n, "disabled"),
		ReadOnly:    HasAttr(n, "readonly"),
	}

	if ml, err := strconv.Atoi(strings.TrimSpace(Attr(n, "maxlength"))); err == nil && ml > 0 {
		info.MaxLength = ml
	}

	return info
}

func DescribeAll(nodes []*html.Node, limit int) []entity.ElementInfo {
	if limit <= 0 || limit > len(nodes) {
		limit = len(nodes)
	}

	out := make([]entity.ElementInfo, 0, limit)
	for _, n := range nodes[:limit] {
		out = append(out, Describe(n))
	}

	return out
}

// ElementType mirrors the DOM type property for form elements.
func ElementType(n *html.Node) string {
	switch n.DataAtom {
	case atom.Input:
		if t := strings.ToLower(strings.TrimSpace(Attr(n, "type"))); t != "" {
			return t
		}

		return "text"
	case atom.Select:
		if HasAttr(n, "multiple") {
			return "select-multiple"
		}

		return "select-one"
	case atom.Textarea:
		return "textarea"
	case atom.Button:
		if t := strings.ToLower(strings.TrimSpace(Attr(n, "type"))); t != "" {
			return t
		}

		return "submit"
	}

	return strings.ToLower(Attr(n, "type"))
}

// Value mirrors the DOM value property: the live annotation wins over markup.
func Value(n *html.Node) string {
	if HasAttr(n, AttrProbeValue) {
		return Attr(n, AttrProbeValue)
	}

	switch n.DataAtom {
	case atom.Textarea:
		return TextContent(n)
	case atom.Select:
		opt := SelectedOption(n)
		if opt == nil {
			return ""
		}

		return OptionValue(opt)
	}

	return Attr(n, "value")
}

// Visible approximates a non-zero rendered box from markup alone unless the
// live snapshot recorded the real answer.
func Visible(n *html.Node) bool {
	if HasAttr(n, AttrProbeVisible) {
		return Attr(n, AttrProbeVisible) == "1"
	}

	if n.DataAtom == atom.Input && strings.EqualFold(Attr(n, "type"), "hidden") {
		return false
	}

	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}

		if HasAttr(p, "hidden") || styleHides(Attr(p, "style")) {
			return false
		}
	}

	return true
}

func styleHides(style string) bool {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))

	return strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden")
}

// Options returns the option children of a select in document order.
func Options(sel *html.Node) []entity.Option {
	var out []entity.Option

	selected := SelectedOption(sel)
	for i, opt := range optionNodes(sel) {
		out = append(out, entity.Option{
			Index:    i,
			Value:    OptionValue(opt),
			Text:     strings.TrimSpace(TextContent(opt)),
			Selected: opt == selected,
		})
	}

	return out
}

// SelectedOption returns the option a browser would report as selected.
func SelectedOption(sel *html.Node) *html.Node {
	opts := optionNodes(sel)
	if len(opts) == 0 {
		return nil
	}

	if HasAttr(sel, AttrProbeValue) {
		want := Attr(sel, AttrProbeValue)
		for _, opt := range opts {
			if OptionValue(opt) == want {
				return opt
			}
		}
	}

	var last *html.Node
	for _, opt := range opts {
		if HasAttr(opt, "selected") {
			last = opt
		}
	}

	if last != nil {
		return last
	}

	return opts[0]
}

func OptionValue(opt *html.Node) string {
	if HasAttr(opt, "value") {
		return Attr(opt, "value")
	}

	return strings.TrimSpace(TextContent(opt))
}

func optionNodes(sel *html.Node) []*html.Node {
	var out []*html.Node

	walk(sel, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			out = append(out, n)
			return false
		}

		return true
	})

	return out
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}

	return string(r[:limit])
}

// HasClass reports whether the class attribute contains sub as a substring.
func HasClass(n *html.Node, sub string) bool {
	return sub != "" && strings.Contains(Attr(n, "class"), sub)
}
