package dom

import (
	"strings"

	"fieldprobe/internal/entity"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const keywordSampleText = 50

func (p *Page) Structure() entity.Structure {
	return entity.Structure{
		Tables: len(p.MustQuery("table")),
		Forms:  len(p.MustQuery("form")),
		Divs:   len(p.MustQuery("div")),
	}
}

// Containers summarizes the first limit block containers that hold controls or buttons.
func (p *Page) Containers(keywords []string, limit int) []entity.ContainerSummary {
	var out []entity.ContainerSummary

	for i, c := range p.MustQuery(ContainerSelector) {
		if limit > 0 && i >= limit {
			break
		}

		controls := len(mustQueryWithin(c, ControlSelector))
		buttons := len(mustQueryWithin(c, SubmitSelector))

		if controls == 0 && buttons == 0 {
			continue
		}

		text := strings.ToLower(TextContent(c))

		var found []string

		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				found = append(found, kw)
			}
		}

		out = append(out, entity.ContainerSummary{
			Index:    i + 1,
			Controls: controls,
			Buttons:  buttons,
			Texts:    len(mustQueryWithin(c, TextElementSelector)),
			Keywords: found,
		})
	}

	return out
}

// KeywordContainers finds, per keyword, elements whose text mentions it and
// that contain form controls. Up to sample containers are kept per keyword.
func (p *Page) KeywordContainers(keywords []string, sample int) []entity.KeywordHits {
	var out []entity.KeywordHits

	elements := p.MustQuery("*")

	for _, kw := range keywords {
		needle := strings.ToLower(kw)
		hits := entity.KeywordHits{Keyword: kw}

		for _, el := range elements {
			text := TextContent(el)
			if !strings.Contains(strings.ToLower(text), needle) {
				continue
			}

			controls := len(mustQueryWithin(el, FormSelector))
			if controls == 0 {
				continue
			}

			hits.Total++
			if len(hits.Containers) < sample {
				hits.Containers = append(hits.Containers, entity.KeywordContainer{
					Text:     Truncate(strings.TrimSpace(text), keywordSampleText),
					Controls: controls,
				})
			}
		}

		if hits.Total > 0 {
			out = append(out, hits)
		}
	}

	return out
}

func (p *Page) Selects() []entity.SelectInfo {
	var out []entity.SelectInfo

	for _, sel := range p.MustQuery("select") {
		out = append(out, entity.SelectInfo{
			Element: Describe(sel),
			Options: Options(sel),
		})
	}

	return out
}

func (p *Page) InputTypes() map[string]int {
	types := make(map[string]int)

	for _, in := range p.MustQuery("input") {
		types[ElementType(in)]++
	}

	return types
}

// Tables reports rows the way HTMLTableElement.rows does: nested tables are
// not counted, columns come from the first row.
func (p *Page) Tables() []entity.TableInfo {
	var out []entity.TableInfo

	for _, t := range p.MustQuery("table") {
		rows := tableRows(t)
		info := entity.TableInfo{
			ID:    Attr(t, "id"),
			Class: Attr(t, "class"),
			Rows:  len(rows),
		}

		if len(rows) > 0 {
			for c := rows[0].FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					info.Columns++
				}
			}
		}

		out = append(out, info)
	}

	return out
}

func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node

	for c := table.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if n.Type != html.ElementNode {
				return true
			}

			switch n.DataAtom {
			case atom.Table:
				return false
			case atom.Tr:
				rows = append(rows, n)
				return false
			}

			return true
		})
	}

	return rows
}
