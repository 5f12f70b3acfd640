package ports

import (
	"context"

	"fieldprobe/internal/entity"
)

// PageSource produces page snapshots. The live browser and the offline file
// loader both implement it.
type PageSource interface {
	Kind() entity.SourceKind
	Snapshot(ctx context.Context) (*entity.PageSnapshot, error)
	// CountControls counts inputs and buttons in the main document, or in the
	// frame picked by frameSelector when it is not empty.
	CountControls(ctx context.Context, frameSelector string) (entity.ControlCount, error)
}

// BrowserManager drives a live page. Field operations take a frame selector;
// an empty selector means the top document.
type BrowserManager interface {
	PageSource
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	InspectField(ctx context.Context, frameSelector, id string) (*entity.FieldState, error)
	SetFieldValue(ctx context.Context, frameSelector, id, value string) error
	UnlockField(ctx context.Context, frameSelector, id, disabledClass string) error
	Describe(ctx context.Context, frameSelector, selector string) (*entity.ElementInfo, error)
	Click(ctx context.Context, frameSelector, selector string) error
	IsReady() bool
}

type Clipboard interface {
	Copy(ctx context.Context, text string) (method string, err error)
}
