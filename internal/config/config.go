package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig     *AppConfig
	BrowserConfig *BrowserConfig
	ProbeConfig   *ProbeConfig
	FieldsConfig  *FieldsConfig
	OutputConfig  *OutputConfig
}

type AppConfig struct {
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	TraceStdout bool   `envconfig:"TRACE_STDOUT" default:"false"`
}

type BrowserConfig struct {
	Headless    bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	SlowMo      int    `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout     int    `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	UserDataDir string `envconfig:"BROWSER_USER_DATA_DIR" default:""`
	Install     bool   `envconfig:"BROWSER_INSTALL" default:"true"`
}

// ProbeConfig drives where the page comes from and how hard the analysis looks.
type ProbeConfig struct {
	TargetURL       string        `envconfig:"PROBE_URL"`
	File            string        `envconfig:"PROBE_FILE"`
	FrameSelector   string        `envconfig:"PROBE_FRAME_SELECTOR" default:"iframe.viewer"`
	SearchRadius    int           `envconfig:"PROBE_SEARCH_RADIUS" default:"3"`
	PeriodKeywords  []string      `envconfig:"PROBE_PERIOD_KEYWORDS" default:"Период,period"`
	DateKeywords    []string      `envconfig:"PROBE_DATE_KEYWORDS" default:"Дата,date"`
	ReasonKeywords  []string      `envconfig:"PROBE_REASON_KEYWORDS" default:"Причина,reason"`
	ReportKeywords  []string      `envconfig:"PROBE_REPORT_KEYWORDS" default:"отчет,report"`
	ViewerMarker    string        `envconfig:"PROBE_VIEWER_MARKER" default:"ReportViewer"`
	PollAttempts    int           `envconfig:"PROBE_POLL_ATTEMPTS" default:"10"`
	PollInterval    time.Duration `envconfig:"PROBE_POLL_INTERVAL" default:"1s"`
	InputThreshold  int           `envconfig:"PROBE_INPUT_THRESHOLD" default:"2"`
	ButtonThreshold int           `envconfig:"PROBE_BUTTON_THRESHOLD" default:"1"`
	SecondPassDelay time.Duration `envconfig:"PROBE_SECOND_PASS_DELAY" default:"2s"`
	ListLimit       int           `envconfig:"PROBE_LIST_LIMIT" default:"20"`
}

// FieldsConfig holds page-specific identifiers and values. They are opaque to
// the tool: nothing in the analysis assumes their meaning.
type FieldsConfig struct {
	PeriodID       string        `envconfig:"FIELD_PERIOD_ID" default:"ReportViewerControl_ctl04_ctl03_ddValue"`
	StartDateID    string        `envconfig:"FIELD_START_DATE_ID" default:"ReportViewerControl_ctl04_ctl05_txtValue"`
	EndDateID      string        `envconfig:"FIELD_END_DATE_ID" default:"ReportViewerControl_ctl04_ctl07_txtValue"`
	ReasonID       string        `envconfig:"FIELD_REASON_ID" default:"ReportViewerControl_ctl04_ctl09_txtValue"`
	SubmitID       string        `envconfig:"FIELD_SUBMIT_ID" default:"ReportViewerControl_ctl04_ctl00"`
	ControlPrefix  string        `envconfig:"FIELD_CONTROL_PREFIX" default:"ReportViewerControl"`
	DisabledClass  string        `envconfig:"FIELD_DISABLED_CLASS" default:"aspNetDisabled"`
	PeriodValue    string        `envconfig:"FIELD_PERIOD_VALUE"`
	SampleStart    string        `envconfig:"FIELD_SAMPLE_START"`
	SampleEnd      string        `envconfig:"FIELD_SAMPLE_END"`
	SampleReason   string        `envconfig:"FIELD_SAMPLE_REASON"`
	UnlockAttempts int           `envconfig:"FIELD_UNLOCK_ATTEMPTS" default:"10"`
	UnlockInterval time.Duration `envconfig:"FIELD_UNLOCK_INTERVAL" default:"2s"`
}

type OutputConfig struct {
	Format string `envconfig:"OUTPUT_FORMAT" default:"text"`
	Copy   bool   `envconfig:"OUTPUT_COPY" default:"false"`
	Color  bool   `envconfig:"OUTPUT_COLOR" default:"true"`
}

// Overrides carries values given on the command line; empty fields keep the env value.
type Overrides struct {
	URL    string
	File   string
	Format string
	Copy   bool
	Radius int
}

// New returns a config with every section allocated and zero-valued.
func New() *Config {
	return &Config{
		AppConfig:     &AppConfig{},
		BrowserConfig: &BrowserConfig{},
		ProbeConfig:   &ProbeConfig{},
		FieldsConfig:  &FieldsConfig{},
		OutputConfig:  &OutputConfig{},
	}
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}

// Apply merges command line overrides into the config and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.URL != "" {
		c.ProbeConfig.TargetURL = o.URL
	}

	if o.File != "" {
		c.ProbeConfig.File = o.File
	}

	if o.Format != "" {
		c.OutputConfig.Format = strings.ToLower(o.Format)
	}

	if o.Copy {
		c.OutputConfig.Copy = true
	}

	if o.Radius > 0 {
		c.ProbeConfig.SearchRadius = o.Radius
	}

	return c.Validate()
}

func (c *Config) Validate() error {
	if c.ProbeConfig.TargetURL != "" && c.ProbeConfig.File != "" {
		return fmt.Errorf("only one of url and file may be set")
	}

	if c.ProbeConfig.SearchRadius <= 0 {
		return fmt.Errorf("search radius must be positive, got %d", c.ProbeConfig.SearchRadius)
	}

	if c.ProbeConfig.PollAttempts <= 0 {
		return fmt.Errorf("poll attempts must be positive, got %d", c.ProbeConfig.PollAttempts)
	}

	switch c.OutputConfig.Format {
	case "text", "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", c.OutputConfig.Format)
	}

	return nil
}

// Offline reports whether the page is read from a saved file instead of a live browser.
func (c *Config) Offline() bool {
	return c.ProbeConfig.File != ""
}
