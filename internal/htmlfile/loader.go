package htmlfile

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fieldprobe/internal/config"
	"fieldprobe/internal/dom"
	"fieldprobe/internal/entity"
	"fieldprobe/pkg/apperr"
	"fieldprobe/pkg/logg"
	"fieldprobe/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	loaderName   = "FileLoader"
	loaderTracer = "htmlfile.loader"

	reasonCrossOrigin = "cross_origin"
	reasonMissing     = "file_missing"
	reasonEmpty       = "empty_src"
)

// Loader reads a saved page from disk. Frames are resolved the way a browser
// would treat a file:// page: srcdoc and sibling files are reachable, anything
// with a scheme or host is not.
type Loader struct {
	path   string
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewLoader(params Params) *Loader {
	return &Loader{
		path:   params.Config.ProbeConfig.File,
		logger: params.Logger.With(zap.String(logg.Layer, loaderName)),
		tracer: otel.Tracer(loaderTracer),
	}
}

func (l *Loader) Kind() entity.SourceKind {
	return entity.SourceFile
}

func (l *Loader) Snapshot(ctx context.Context) (snapshot *entity.PageSnapshot, err error) {
	const op = "Snapshot"
	logger := l.logger.With(zap.String(logg.Operation, op), zap.String(logg.Source, l.path))

	_, step := tracing.StartSpan(ctx, l.tracer, logger, op, attribute.String("path", l.path))
	defer func() {
		step.End(err)
	}()

	markup, err := l.read(op, l.path)
	if err != nil {
		return nil, err
	}

	page, err := dom.NewPage(markup)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "parse_failed",
			apperr.MetaStage:  apperr.StageSnapshot,
			apperr.MetaPath:   l.path,
		})
	}

	abs, _ := filepath.Abs(l.path)
	snapshot = &entity.PageSnapshot{
		Source:    entity.SourceFile,
		URL:       (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Title:     page.Title(),
		HTML:      markup,
		Timestamp: time.Now(),
	}

	for i, node := range page.MustQuery("iframe") {
		frame := entity.FrameSnapshot{
			Index: i,
			ID:    dom.Attr(node, "id"),
			Name:  dom.Attr(node, "name"),
			Class: dom.Attr(node, "class"),
			Src:   dom.Attr(node, "src"),
		}

		frame.HTML, frame.Reason = l.frameContent(node)
		frame.Accessible = frame.Reason == ""

		if !frame.Accessible {
			logger.Debug("Frame not accessible", zap.Int(logg.Frame, i), zap.String(apperr.MetaReason, frame.Reason))
		}

		snapshot.Frames = append(snapshot.Frames, frame)
	}

	step.Count("frames", len(snapshot.Frames))

	return snapshot, nil
}

// frameContent returns the frame document, or the reason it could not be read.
func (l *Loader) frameContent(node *html.Node) (string, string) {
	if dom.HasAttr(node, "srcdoc") {
		return dom.Attr(node, "srcdoc"), ""
	}

	src := strings.TrimSpace(dom.Attr(node, "src"))
	if src == "" || src == "about:blank" {
		return "", reasonEmpty
	}

	ref, err := url.Parse(src)
	if err != nil || ref.Scheme != "" || ref.Host != "" || ref.Path == "" {
		return "", reasonCrossOrigin
	}

	sibling := filepath.Join(filepath.Dir(l.path), filepath.FromSlash(ref.Path))

	markup, err := l.read("frameContent", sibling)
	if err != nil {
		return "", reasonMissing
	}

	return markup, ""
}

func (l *Loader) CountControls(ctx context.Context, frameSelector string) (count entity.ControlCount, err error) {
	const op = "CountControls"
	logger := l.logger.With(zap.String(logg.Operation, op), zap.String(logg.Frame, frameSelector))

	ctx, step := tracing.StartSpan(ctx, l.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	snapshot, err := l.Snapshot(ctx)
	if err != nil {
		return count, err
	}

	markup := snapshot.HTML

	if frameSelector != "" {
		markup, err = pickFrame(snapshot, frameSelector)
		if err != nil {
			return count, err
		}
	}

	page, err := dom.NewPage(markup)
	if err != nil {
		return count, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "parse_failed",
		})
	}

	return entity.ControlCount{
		Inputs:  len(page.MustQuery(dom.ControlSelector)),
		Buttons: len(page.MustQuery(dom.SubmitSelector)),
	}, nil
}

// pickFrame mirrors the live frame lookup: the selector first, then the
// first iframe of the document.
func pickFrame(snapshot *entity.PageSnapshot, frameSelector string) (string, error) {
	const op = "pickFrame"

	page, err := dom.NewPage(snapshot.HTML)
	if err != nil {
		return "", err
	}

	frames := page.MustQuery("iframe")

	index := -1
	if matched, err := page.Query(frameSelector); err == nil && len(matched) > 0 {
		for i, f := range frames {
			if f == matched[0] {
				index = i

				break
			}
		}
	}

	if index < 0 && len(frames) > 0 {
		index = 0
	}

	if index < 0 || index >= len(snapshot.Frames) {
		return "", apperr.Wrap(op, apperr.CodeNotFound, errors.New("iframe not found"), map[string]any{
			apperr.MetaReason:   "frame_not_found",
			apperr.MetaStage:    apperr.StageFrame,
			apperr.MetaSelector: frameSelector,
		})
	}

	frame := snapshot.Frames[index]
	if !frame.Accessible {
		return "", apperr.Wrap(op, apperr.CodeUnavailable, errors.New("iframe content is not accessible"), map[string]any{
			apperr.MetaReason:   "frame_inaccessible",
			apperr.MetaStage:    apperr.StageFrame,
			apperr.MetaSelector: frameSelector,
		})
	}

	return frame.HTML, nil
}

func (l *Loader) read(op, path string) (string, error) {
	if path == "" {
		return "", apperr.InvalidReqError(op, "file", errors.New("no input file configured"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		code := apperr.CodeInternal
		if errors.Is(err, os.ErrNotExist) {
			code = apperr.CodeNotFound
		}

		return "", apperr.Wrap(op, code, err, map[string]any{
			apperr.MetaReason: "read_failed",
			apperr.MetaStage:  apperr.StageSnapshot,
			apperr.MetaPath:   path,
		})
	}

	return string(data), nil
}
