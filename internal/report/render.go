package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"fieldprobe/internal/config"
	"fieldprobe/pkg/apperr"
	"fieldprobe/pkg/logg"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	Text  Format = "text"
	Table Format = "table"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

func ParseFormat(format string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(format))); f {
	case Text, Table, JSON, YAML:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

// Renderer turns workflow results into printable output.
type Renderer struct {
	format Format
	title  *color.Color
	key    *color.Color
	warn   *color.Color
	logger *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewRenderer(params Params) (*Renderer, error) {
	format, err := ParseFormat(params.Config.OutputConfig.Format)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		format: format,
		title:  color.New(color.FgCyan, color.Bold),
		key:    color.New(color.FgHiBlack),
		warn:   color.New(color.FgYellow),
		logger: params.Logger.With(zap.String(logg.Layer, "Renderer")),
	}

	if !params.Config.OutputConfig.Color {
		r.title.DisableColor()
		r.key.DisableColor()
		r.warn.DisableColor()
	}

	return r, nil
}

func (r *Renderer) Format() Format {
	return r.format
}

// Render formats v, which must be one of the entity result types.
func (r *Renderer) Render(v any) (string, error) {
	const op = "Render"

	switch r.format {
	case JSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", r.wrap(op, err)
		}

		return string(data) + "\n", nil
	case YAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", r.wrap(op, err)
		}

		return string(data), nil
	}

	secs, err := sections(v)
	if err != nil {
		return "", r.wrap(op, err)
	}

	if r.format == Table {
		return r.renderTables(secs), nil
	}

	return r.renderText(secs), nil
}

func (r *Renderer) wrap(op string, err error) error {
	return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
		apperr.MetaReason: "render_failed",
		apperr.MetaStage:  apperr.StageRender,
		"format":          string(r.format),
	})
}

func (r *Renderer) renderText(secs []section) string {
	var b strings.Builder

	for i, s := range secs {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString(r.title.Sprintf("== %s ==", s.title))
		b.WriteString("\n")

		for _, kv := range s.pairs {
			fmt.Fprintf(&b, "%s %s\n", r.key.Sprintf("%s:", kv[0]), kv[1])
		}

		if len(s.rows) == 0 && len(s.headers) > 0 {
			b.WriteString(r.warn.Sprint("(none)"))
			b.WriteString("\n")
		}

		for n, row := range s.rows {
			fields := make([]string, 0, len(row))

			for j, cell := range row {
				if cell == "" {
					continue
				}

				if j < len(s.headers) {
					fields = append(fields, s.headers[j]+"="+cell)
				} else {
					fields = append(fields, cell)
				}
			}

			fmt.Fprintf(&b, "  %d. %s\n", n+1, strings.Join(fields, " "))
		}

		for _, line := range s.notes {
			fmt.Fprintf(&b, "  %s\n", r.warn.Sprint(line))
		}
	}

	return b.String()
}

func (r *Renderer) renderTables(secs []section) string {
	var b strings.Builder

	for _, s := range secs {
		b.WriteString(r.title.Sprint(s.title))
		b.WriteString("\n")

		buffer := new(bytes.Buffer)
		table := tablewriter.NewWriter(buffer)
		table.SetBorder(true)
		table.SetAutoWrapText(false)

		switch {
		case len(s.headers) > 0:
			table.SetHeader(s.headers)
			table.AppendBulk(s.rows)
		case len(s.pairs) > 0:
			table.SetHeader([]string{"field", "value"})
			for _, kv := range s.pairs {
				table.Append([]string{kv[0], kv[1]})
			}
		}

		width := len(s.headers)
		if width == 0 && len(s.pairs) > 0 {
			width = 2
		}

		for _, line := range s.notes {
			table.Append(padRow([]string{line}, width))
		}

		table.Render()
		b.WriteString(buffer.String())
		b.WriteString("\n")
	}

	return b.String()
}

func padRow(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}

	return row
}
