package entity

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
	DirectionAncestor Direction = "ancestor"
)

type SourceKind string

const (
	SourceLive SourceKind = "live"
	SourceFile SourceKind = "file"
)

// ElementInfo is the fixed field copy printed for every element the tool reports.
type ElementInfo struct {
	Tag         string `json:"tag" yaml:"tag"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Class       string `json:"class,omitempty" yaml:"class,omitempty"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	Src         string `json:"src,omitempty" yaml:"src,omitempty"`
	Href        string `json:"href,omitempty" yaml:"href,omitempty"`
	MaxLength   int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Visible     bool   `json:"visible" yaml:"visible"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	ReadOnly    bool   `json:"read_only" yaml:"read_only"`
}

type MatchInfo struct {
	Control   ElementInfo `json:"control" yaml:"control"`
	Direction Direction   `json:"direction" yaml:"direction"`
	Distance  int         `json:"distance" yaml:"distance"`
}

type LabelMatches struct {
	Label   ElementInfo `json:"label" yaml:"label"`
	Matches []MatchInfo `json:"matches" yaml:"matches"`
}

// TargetSearch is the result of looking for one kind of field (period, date, reason) by keyword.
type TargetSearch struct {
	Target   string         `json:"target" yaml:"target"`
	Keywords []string       `json:"keywords" yaml:"keywords"`
	Labels   []LabelMatches `json:"labels" yaml:"labels"`
}

type Option struct {
	Index    int    `json:"index" yaml:"index"`
	Value    string `json:"value" yaml:"value"`
	Text     string `json:"text" yaml:"text"`
	Selected bool   `json:"selected,omitempty" yaml:"selected,omitempty"`
}

type SelectInfo struct {
	Element ElementInfo `json:"element" yaml:"element"`
	Options []Option    `json:"options" yaml:"options"`
}

type SelectorHit struct {
	Selector string        `json:"selector" yaml:"selector"`
	Count    int           `json:"count" yaml:"count"`
	Sample   []ElementInfo `json:"sample" yaml:"sample"`
}

type ContainerSummary struct {
	Index    int      `json:"index" yaml:"index"`
	Controls int      `json:"controls" yaml:"controls"`
	Buttons  int      `json:"buttons" yaml:"buttons"`
	Texts    int      `json:"texts" yaml:"texts"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

type KeywordContainer struct {
	Text     string `json:"text" yaml:"text"`
	Controls int    `json:"controls" yaml:"controls"`
}

type KeywordHits struct {
	Keyword    string             `json:"keyword" yaml:"keyword"`
	Total      int                `json:"total" yaml:"total"`
	Containers []KeywordContainer `json:"containers" yaml:"containers"`
}

type PatternHits struct {
	Attribute string        `json:"attribute" yaml:"attribute"`
	Pattern   string        `json:"pattern" yaml:"pattern"`
	Elements  []ElementInfo `json:"elements" yaml:"elements"`
}

type ControlTotals struct {
	Main   int `json:"main" yaml:"main"`
	Shadow int `json:"shadow" yaml:"shadow"`
	Total  int `json:"total" yaml:"total"`
}

type Structure struct {
	Tables int `json:"tables" yaml:"tables"`
	Forms  int `json:"forms" yaml:"forms"`
	Divs   int `json:"divs" yaml:"divs"`
}

type TableInfo struct {
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Class   string `json:"class,omitempty" yaml:"class,omitempty"`
	Rows    int    `json:"rows" yaml:"rows"`
	Columns int    `json:"columns" yaml:"columns"`
}

// FrameSnapshot is one iframe as seen from its parent document.
type FrameSnapshot struct {
	Index      int    `json:"index" yaml:"index"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Class      string `json:"class,omitempty" yaml:"class,omitempty"`
	Src        string `json:"src,omitempty" yaml:"src,omitempty"`
	Accessible bool   `json:"accessible" yaml:"accessible"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	HTML       string `json:"-" yaml:"-"`
}

// PageSnapshot is the raw material every workflow works on. Both the live
// browser and the offline file loader produce it.
type PageSnapshot struct {
	Source    SourceKind      `json:"source" yaml:"source"`
	URL       string          `json:"url" yaml:"url"`
	Title     string          `json:"title" yaml:"title"`
	HTML      string          `json:"-" yaml:"-"`
	Frames    []FrameSnapshot `json:"frames" yaml:"frames"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

type FrameReport struct {
	Frame    FrameSnapshot `json:"frame" yaml:"frame"`
	Controls int           `json:"controls" yaml:"controls"`
	Buttons  int           `json:"buttons" yaml:"buttons"`
	First    []ElementInfo `json:"first,omitempty" yaml:"first,omitempty"`
}

type ControlCount struct {
	Inputs  int `json:"inputs" yaml:"inputs"`
	Buttons int `json:"buttons" yaml:"buttons"`
}

type PollResult struct {
	Attempts []ControlCount `json:"attempts" yaml:"attempts"`
	Loaded   bool           `json:"loaded" yaml:"loaded"`
}

type SecondPass struct {
	Before      int           `json:"before" yaml:"before"`
	After       int           `json:"after" yaml:"after"`
	NewElements bool          `json:"new_elements" yaml:"new_elements"`
	Frames      []FrameReport `json:"frames" yaml:"frames"`
}

// Report is the output of a full page analysis.
type Report struct {
	RunID        uuid.UUID          `json:"run_id" yaml:"run_id"`
	Source       SourceKind         `json:"source" yaml:"source"`
	URL          string             `json:"url" yaml:"url"`
	Title        string             `json:"title" yaml:"title"`
	Document     string             `json:"document" yaml:"document"`
	ReportPath   string             `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	Fields       []ElementInfo      `json:"fields" yaml:"fields"`
	FieldTotal   int                `json:"field_total" yaml:"field_total"`
	Targets      []TargetSearch     `json:"targets" yaml:"targets"`
	Buttons      []ElementInfo      `json:"buttons" yaml:"buttons"`
	ButtonTotal  int                `json:"button_total" yaml:"button_total"`
	Structure    Structure          `json:"structure" yaml:"structure"`
	Viewer       []ElementInfo      `json:"viewer" yaml:"viewer"`
	Selects      []SelectInfo       `json:"selects" yaml:"selects"`
	InputTypes   map[string]int     `json:"input_types" yaml:"input_types"`
	Hidden       []ElementInfo      `json:"hidden" yaml:"hidden"`
	HiddenTotal  int                `json:"hidden_total" yaml:"hidden_total"`
	Frames       []FrameReport      `json:"frames" yaml:"frames"`
	Embeds       []ElementInfo      `json:"embeds" yaml:"embeds"`
	SelectorHits []SelectorHit      `json:"selector_hits" yaml:"selector_hits"`
	Containers   []ContainerSummary `json:"containers" yaml:"containers"`
	KeywordHits  []KeywordHits      `json:"keyword_hits" yaml:"keyword_hits"`
	Patterns     []PatternHits      `json:"patterns" yaml:"patterns"`
	Controls     ControlTotals      `json:"controls" yaml:"controls"`
	Poll         *PollResult        `json:"poll,omitempty" yaml:"poll,omitempty"`
	SecondPass   *SecondPass        `json:"second_pass,omitempty" yaml:"second_pass,omitempty"`
	GeneratedAt  time.Time          `json:"generated_at" yaml:"generated_at"`
}

type FieldState struct {
	Role         string      `json:"role" yaml:"role"`
	ID           string      `json:"id" yaml:"id"`
	Found        bool        `json:"found" yaml:"found"`
	Element      ElementInfo `json:"element" yaml:"element"`
	Disabled     bool        `json:"disabled" yaml:"disabled"`
	Blocked      bool        `json:"blocked" yaml:"blocked"`
	SelectedText string      `json:"selected_text,omitempty" yaml:"selected_text,omitempty"`
	Options      []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	Hints        []string    `json:"hints,omitempty" yaml:"hints,omitempty"`
}

type Diagnosis struct {
	RunID       uuid.UUID     `json:"run_id" yaml:"run_id"`
	Document    string        `json:"document" yaml:"document"`
	Fields      []FieldState  `json:"fields" yaml:"fields"`
	Prefixed    []ElementInfo `json:"prefixed" yaml:"prefixed"`
	FieldTotal  int           `json:"field_total" yaml:"field_total"`
	Notes       []string      `json:"notes" yaml:"notes"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
}

type UnlockAttempt struct {
	Attempt  int             `json:"attempt" yaml:"attempt"`
	Unlocked map[string]bool `json:"unlocked" yaml:"unlocked"`
}

type UnlockReport struct {
	RunID       uuid.UUID       `json:"run_id" yaml:"run_id"`
	PeriodFrom  string          `json:"period_from" yaml:"period_from"`
	PeriodTo    string          `json:"period_to" yaml:"period_to"`
	Initial     []FieldState    `json:"initial" yaml:"initial"`
	Attempts    []UnlockAttempt `json:"attempts" yaml:"attempts"`
	Unlocked    bool            `json:"unlocked" yaml:"unlocked"`
	Forced      []FieldState    `json:"forced" yaml:"forced"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
}

type PeriodReport struct {
	RunID         uuid.UUID    `json:"run_id" yaml:"run_id"`
	Options       []Option     `json:"options" yaml:"options"`
	OriginalValue string       `json:"original_value" yaml:"original_value"`
	OriginalText  string       `json:"original_text" yaml:"original_text"`
	TestedValue   string       `json:"tested_value" yaml:"tested_value"`
	AppliedValue  string       `json:"applied_value" yaml:"applied_value"`
	AppliedText   string       `json:"applied_text" yaml:"applied_text"`
	Dependents    []FieldState `json:"dependents" yaml:"dependents"`
	Restored      string       `json:"restored" yaml:"restored"`
	GeneratedAt   time.Time    `json:"generated_at" yaml:"generated_at"`
}

type Interaction struct {
	Selector string      `json:"selector" yaml:"selector"`
	Frame    string      `json:"frame" yaml:"frame"`
	Element  ElementInfo `json:"element" yaml:"element"`
	Clicked  bool        `json:"clicked" yaml:"clicked"`
}

type PageDump struct {
	URL       string          `json:"url" yaml:"url"`
	Title     string          `json:"title" yaml:"title"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Iframes   []FrameSnapshot `json:"iframeInfo" yaml:"iframe_info"`
	Viewer    []ElementInfo   `json:"reportElements" yaml:"report_elements"`
	Tables    []TableInfo     `json:"dataTables" yaml:"data_tables"`
	Buttons   []ElementInfo   `json:"buttons" yaml:"buttons"`
	Inputs    []ElementInfo   `json:"inputs" yaml:"inputs"`
	HTML      string          `json:"html" yaml:"html"`
}
