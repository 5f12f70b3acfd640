package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"fieldprobe/internal/entity"
)

// section is one block of output. A section carries either key/value pairs
// or a header with rows; notes are free-form lines printed after them.
type section struct {
	title   string
	pairs   [][2]string
	headers []string
	rows    [][]string
	notes   []string
}

var elementHeaders = []string{"tag", "id", "name", "type", "value", "visible", "enabled"}

func sections(v any) ([]section, error) {
	switch r := v.(type) {
	case *entity.Report:
		return reportSections(r), nil
	case *entity.Diagnosis:
		return diagnosisSections(r), nil
	case *entity.UnlockReport:
		return unlockSections(r), nil
	case *entity.PeriodReport:
		return periodSections(r), nil
	case *entity.Interaction:
		return interactionSections(r), nil
	case *entity.PageDump:
		return dumpSections(r), nil
	default:
		return nil, fmt.Errorf("no text layout for %T", v)
	}
}

func reportSections(r *entity.Report) []section {
	secs := []section{
		{
			title: "Page",
			pairs: [][2]string{
				{"run", r.RunID.String()},
				{"source", string(r.Source)},
				{"url", r.URL},
				{"title", r.Title},
				{"document", r.Document},
				{"report path", orDash(r.ReportPath)},
				{"generated", stamp(r.GeneratedAt)},
			},
		},
		{
			title: "Counts",
			pairs: [][2]string{
				{"fields", strconv.Itoa(r.FieldTotal)},
				{"buttons", strconv.Itoa(r.ButtonTotal)},
				{"hidden inputs", strconv.Itoa(r.HiddenTotal)},
				{"tables", strconv.Itoa(r.Structure.Tables)},
				{"forms", strconv.Itoa(r.Structure.Forms)},
				{"divs", strconv.Itoa(r.Structure.Divs)},
				{"controls (main/shadow/total)", fmt.Sprintf("%d/%d/%d", r.Controls.Main, r.Controls.Shadow, r.Controls.Total)},
				{"input types", countMap(r.InputTypes)},
			},
		},
	}

	if r.Poll != nil {
		poll := section{
			title: "Dynamic content",
			pairs: [][2]string{
				{"attempts", strconv.Itoa(len(r.Poll.Attempts))},
				{"loaded", yesNo(r.Poll.Loaded)},
			},
		}

		if !r.Poll.Loaded {
			poll.notes = append(poll.notes, "expected controls did not appear before the poll gave up")
		}

		secs = append(secs, poll)
	}

	secs = append(secs, elementSection(fmt.Sprintf("Fields (%d)", r.FieldTotal), r.Fields))

	for _, target := range r.Targets {
		secs = append(secs, targetSection(target))
	}

	secs = append(secs,
		elementSection(fmt.Sprintf("Buttons (%d)", r.ButtonTotal), r.Buttons),
		selectSection(r.Selects),
		elementSection("Report viewer elements", r.Viewer),
		elementSection(fmt.Sprintf("Hidden inputs (%d)", r.HiddenTotal), r.Hidden),
		frameSection("Frames", r.Frames),
		elementSection("Embeds", r.Embeds),
	)

	hits := section{title: "Selector probes", headers: []string{"selector", "count", "first"}}
	for _, h := range r.SelectorHits {
		hits.rows = append(hits.rows, []string{h.Selector, strconv.Itoa(h.Count), firstIDs(h.Sample)})
	}

	containers := section{title: "Containers", headers: []string{"index", "controls", "buttons", "texts", "keywords"}}
	for _, c := range r.Containers {
		containers.rows = append(containers.rows, []string{
			strconv.Itoa(c.Index), strconv.Itoa(c.Controls), strconv.Itoa(c.Buttons), strconv.Itoa(c.Texts),
			strings.Join(c.Keywords, ","),
		})
	}

	keywords := section{title: "Keyword containers", headers: []string{"keyword", "total", "text", "controls"}}
	for _, k := range r.KeywordHits {
		for _, c := range k.Containers {
			keywords.rows = append(keywords.rows, []string{k.Keyword, strconv.Itoa(k.Total), c.Text, strconv.Itoa(c.Controls)})
		}
	}

	patterns := section{title: "Id and name patterns", headers: []string{"attribute", "pattern", "count", "first"}}
	for _, p := range r.Patterns {
		patterns.rows = append(patterns.rows, []string{p.Attribute, p.Pattern, strconv.Itoa(len(p.Elements)), firstIDs(p.Elements)})
	}

	secs = append(secs, hits, containers, keywords, patterns)

	if r.SecondPass != nil {
		pass := frameSection("Second pass", r.SecondPass.Frames)
		pass.notes = append(pass.notes, fmt.Sprintf("controls before %d, after %d, new elements: %s",
			r.SecondPass.Before, r.SecondPass.After, yesNo(r.SecondPass.NewElements)))
		secs = append(secs, pass)
	}

	return secs
}

func diagnosisSections(d *entity.Diagnosis) []section {
	fields := fieldSection("Fields", d.Fields)

	hints := section{title: "Automation hints"}
	for _, f := range d.Fields {
		for _, h := range f.Hints {
			hints.notes = append(hints.notes, f.Role+": "+h)
		}
	}

	return []section{
		{
			title: "Diagnosis",
			pairs: [][2]string{
				{"run", d.RunID.String()},
				{"document", d.Document},
				{"controls", strconv.Itoa(d.FieldTotal)},
				{"generated", stamp(d.GeneratedAt)},
			},
		},
		fields,
		elementSection("Prefixed controls", d.Prefixed),
		hints,
		{title: "Notes", notes: d.Notes},
	}
}

func unlockSections(u *entity.UnlockReport) []section {
	attempts := section{title: "Unlock attempts", headers: []string{"attempt", "unlocked", "still blocked"}}
	for _, a := range u.Attempts {
		var open, closed []string

		for _, id := range sortedKeys(a.Unlocked) {
			if a.Unlocked[id] {
				open = append(open, id)
			} else {
				closed = append(closed, id)
			}
		}

		attempts.rows = append(attempts.rows, []string{strconv.Itoa(a.Attempt), strings.Join(open, ","), strings.Join(closed, ",")})
	}

	secs := []section{
		{
			title: "Unlock",
			pairs: [][2]string{
				{"run", u.RunID.String()},
				{"period", u.PeriodFrom + " -> " + u.PeriodTo},
				{"unlocked by page", yesNo(u.Unlocked)},
				{"generated", stamp(u.GeneratedAt)},
			},
		},
		fieldSection("Initial state", u.Initial),
		attempts,
	}

	if len(u.Forced) > 0 {
		secs = append(secs, fieldSection("After forced unlock", u.Forced))
	}

	return secs
}

func periodSections(p *entity.PeriodReport) []section {
	options := section{title: "Period options", headers: []string{"index", "value", "text", "selected"}}
	for _, o := range p.Options {
		options.rows = append(options.rows, []string{strconv.Itoa(o.Index), o.Value, o.Text, yesNo(o.Selected)})
	}

	return []section{
		{
			title: "Period",
			pairs: [][2]string{
				{"run", p.RunID.String()},
				{"original", fmt.Sprintf("%s (%s)", p.OriginalValue, p.OriginalText)},
				{"tested", orDash(p.TestedValue)},
				{"applied", fmt.Sprintf("%s (%s)", orDash(p.AppliedValue), p.AppliedText)},
				{"restored", orDash(p.Restored)},
				{"generated", stamp(p.GeneratedAt)},
			},
		},
		options,
		fieldSection("Dependent fields", p.Dependents),
	}
}

func interactionSections(i *entity.Interaction) []section {
	return []section{
		{
			title: "Element",
			pairs: [][2]string{
				{"selector", i.Selector},
				{"frame", orDash(i.Frame)},
				{"tag", i.Element.Tag},
				{"id", orDash(i.Element.ID)},
				{"type", orDash(i.Element.Type)},
				{"value", orDash(i.Element.Value)},
				{"text", orDash(i.Element.Text)},
				{"visible", yesNo(i.Element.Visible)},
				{"enabled", yesNo(i.Element.Enabled)},
				{"clicked", yesNo(i.Clicked)},
			},
		},
	}
}

func dumpSections(d *entity.PageDump) []section {
	frames := section{title: "Iframes", headers: []string{"index", "id", "src", "accessible", "reason"}}
	for _, f := range d.Iframes {
		frames.rows = append(frames.rows, []string{strconv.Itoa(f.Index), f.ID, f.Src, yesNo(f.Accessible), f.Reason})
	}

	tables := section{title: "Data tables", headers: []string{"id", "class", "rows", "columns"}}
	for _, t := range d.Tables {
		tables.rows = append(tables.rows, []string{t.ID, t.Class, strconv.Itoa(t.Rows), strconv.Itoa(t.Columns)})
	}

	return []section{
		{
			title: "Page dump",
			pairs: [][2]string{
				{"url", d.URL},
				{"title", d.Title},
				{"timestamp", stamp(d.Timestamp)},
				{"html bytes", strconv.Itoa(len(d.HTML))},
			},
		},
		frames,
		elementSection("Report viewer elements", d.Viewer),
		tables,
		elementSection("Buttons", d.Buttons),
		elementSection("Inputs", d.Inputs),
	}
}

func elementSection(title string, elements []entity.ElementInfo) section {
	s := section{title: title, headers: elementHeaders}
	for _, e := range elements {
		s.rows = append(s.rows, elementRow(e))
	}

	return s
}

func elementRow(e entity.ElementInfo) []string {
	return []string{e.Tag, e.ID, e.Name, e.Type, e.Value, yesNo(e.Visible), yesNo(e.Enabled)}
}

func targetSection(t entity.TargetSearch) section {
	s := section{
		title:   fmt.Sprintf("Target %s (%s)", t.Target, strings.Join(t.Keywords, ", ")),
		headers: []string{"label", "control", "direction", "distance"},
	}

	for _, l := range t.Labels {
		label := l.Label.Text
		if label == "" {
			label = l.Label.Tag
		}

		if len(l.Matches) == 0 {
			s.rows = append(s.rows, []string{label, "", "", ""})

			continue
		}

		for _, m := range l.Matches {
			s.rows = append(s.rows, []string{label, controlName(m.Control), string(m.Direction), strconv.Itoa(m.Distance)})
		}
	}

	return s
}

func selectSection(selects []entity.SelectInfo) section {
	s := section{title: "Selects", headers: []string{"id", "name", "options", "selected"}}

	for _, sel := range selects {
		selected := ""

		for _, o := range sel.Options {
			if o.Selected {
				selected = fmt.Sprintf("%s (%s)", o.Value, o.Text)
			}
		}

		s.rows = append(s.rows, []string{sel.Element.ID, sel.Element.Name, strconv.Itoa(len(sel.Options)), selected})
	}

	return s
}

func frameSection(title string, frames []entity.FrameReport) section {
	s := section{title: title, headers: []string{"index", "id", "src", "accessible", "controls", "buttons", "reason"}}

	for _, f := range frames {
		s.rows = append(s.rows, []string{
			strconv.Itoa(f.Frame.Index), f.Frame.ID, f.Frame.Src, yesNo(f.Frame.Accessible),
			strconv.Itoa(f.Controls), strconv.Itoa(f.Buttons), f.Frame.Reason,
		})
	}

	return s
}

func fieldSection(title string, fields []entity.FieldState) section {
	s := section{title: title, headers: []string{"role", "id", "found", "disabled", "blocked", "value"}}

	for _, f := range fields {
		value := f.Element.Value
		if f.SelectedText != "" {
			value = fmt.Sprintf("%s (%s)", value, f.SelectedText)
		}

		s.rows = append(s.rows, []string{f.Role, f.ID, yesNo(f.Found), yesNo(f.Disabled), yesNo(f.Blocked), value})
	}

	return s
}

func controlName(e entity.ElementInfo) string {
	switch {
	case e.ID != "":
		return "#" + e.ID
	case e.Name != "":
		return fmt.Sprintf("%s[name=%s]", strings.ToLower(e.Tag), e.Name)
	default:
		return strings.ToLower(e.Tag)
	}
}

func firstIDs(elements []entity.ElementInfo) string {
	names := make([]string, 0, len(elements))
	for _, e := range elements {
		names = append(names, controlName(e))
	}

	return strings.Join(names, " ")
}

func countMap(m map[string]int) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}

	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format(time.RFC3339)
}
