package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"fieldprobe/internal/dom"
	"fieldprobe/internal/entity"
	"fieldprobe/pkg/apperr"
)

const mainDocument = "main"

// reportPathKeys are the query parameters report viewers use for the report location.
var reportPathKeys = []string{"ReportPath", "ItemPath", "path"}

// documents holds the parsed top page and the document the workflows target:
// the viewer frame when it is readable, the top page otherwise.
type documents struct {
	main       *dom.Page
	target     *dom.Page
	targetName string
	frame      *entity.FrameSnapshot
	// frameErr is set when a viewer frame exists but its content cannot be read.
	frameErr error
}

func openDocuments(snapshot *entity.PageSnapshot, frameSelector string) (*documents, error) {
	const op = "openDocuments"

	main, err := dom.NewPage(snapshot.HTML)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "parse_failed",
			apperr.MetaStage:  apperr.StageSnapshot,
		})
	}

	docs := &documents{
		main:       main,
		target:     main,
		targetName: mainDocument,
	}

	index := frameIndex(main, frameSelector)
	if index < 0 || index >= len(snapshot.Frames) {
		return docs, nil
	}

	frame := &snapshot.Frames[index]
	docs.frame = frame

	if !frame.Accessible {
		docs.frameErr = apperr.Wrap(op, apperr.CodeUnavailable, errors.New("viewer frame is not accessible"), map[string]any{
			apperr.MetaReason: "frame_inaccessible",
			apperr.MetaStage:  apperr.StageFrame,
			apperr.MetaFrame:  frame.Index,
		})

		return docs, nil
	}

	target, err := dom.NewPage(frame.HTML)
	if err != nil {
		docs.frameErr = apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "frame_parse_failed",
			apperr.MetaStage:  apperr.StageFrame,
			apperr.MetaFrame:  frame.Index,
		})

		return docs, nil
	}

	docs.target = target
	docs.targetName = frameName(*frame)

	return docs, nil
}

// frameIndex returns the index of the iframe picked by selector, the first
// iframe when nothing matches, or -1 when the page has no iframes.
func frameIndex(page *dom.Page, selector string) int {
	frames := page.MustQuery("iframe")
	if len(frames) == 0 {
		return -1
	}

	if selector != "" {
		if matched, err := page.Query(selector); err == nil && len(matched) > 0 {
			for i, f := range frames {
				if f == matched[0] {
					return i
				}
			}
		}
	}

	return 0
}

func frameName(frame entity.FrameSnapshot) string {
	switch {
	case frame.ID != "":
		return fmt.Sprintf("frame[%d]#%s", frame.Index, frame.ID)
	case frame.Name != "":
		return fmt.Sprintf("frame[%d](%s)", frame.Index, frame.Name)
	default:
		return fmt.Sprintf("frame[%d]", frame.Index)
	}
}

// reportPath decodes the report location from a viewer frame src.
func reportPath(src string) string {
	if src == "" {
		return ""
	}

	u, err := url.Parse(src)
	if err != nil {
		return ""
	}

	query := u.Query()
	for _, key := range reportPathKeys {
		for name, values := range query {
			if strings.EqualFold(name, key) && len(values) > 0 {
				return values[0]
			}
		}
	}

	return ""
}

func viewerSelector(marker string) string {
	return fmt.Sprintf(`[class*=%q], [id*=%q]`, marker, marker)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
