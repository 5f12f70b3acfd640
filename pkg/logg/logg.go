package logg

// Field keys shared by every component logger.
const (
	Layer     = "layer"
	Operation = "operation"
	URL       = "url"
	Selector  = "selector"
	Action    = "action"
	RunID     = "run_id"
	Frame     = "frame"
	FieldID   = "field_id"
	Source    = "source"
)
