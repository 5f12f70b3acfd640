package report

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"fieldprobe/pkg/apperr"
	"fieldprobe/pkg/logg"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	MethodSystem = "system"
	MethodOSC52  = "osc52"
)

// Clipboard copies text to the system clipboard, or asks the terminal to do
// it through an OSC 52 escape sequence when no clipboard tool is installed.
type Clipboard struct {
	logger    *zap.Logger
	terminal  io.Writer
	supported bool
	write     func(string) error
	getenv    func(string) string
}

type ClipboardParams struct {
	fx.In

	Logger *zap.Logger
}

func NewClipboard(params ClipboardParams) *Clipboard {
	return &Clipboard{
		logger:    params.Logger.With(zap.String(logg.Layer, "Clipboard")),
		terminal:  os.Stderr,
		supported: !clipboard.Unsupported,
		write:     clipboard.WriteAll,
		getenv:    os.Getenv,
	}
}

func (c *Clipboard) Copy(ctx context.Context, text string) (string, error) {
	const op = "Copy"
	logger := c.logger.With(zap.String(logg.Operation, op))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if c.supported {
		err := c.write(text)
		if err == nil {
			logger.Debug("Copied to system clipboard", zap.Int("bytes", len(text)))

			return MethodSystem, nil
		}

		logger.Warn("System clipboard failed, falling back to terminal", zap.Error(err))
	}

	seq := osc52.New(text)

	switch {
	case c.getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(c.getenv("TERM"), "screen"):
		seq = seq.Screen()
	}

	if c.terminal == nil {
		return "", apperr.Wrap(op, apperr.CodeUnavailable, errors.New("no terminal for clipboard sequence"), map[string]any{
			apperr.MetaReason: "clipboard_unavailable",
			apperr.MetaStage:  apperr.StageClipboard,
		})
	}

	if _, err := seq.WriteTo(c.terminal); err != nil {
		return "", apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
			apperr.MetaReason: "clipboard_write_failed",
			apperr.MetaStage:  apperr.StageClipboard,
		})
	}

	logger.Debug("Copied through terminal", zap.Int("bytes", len(text)))

	return MethodOSC52, nil
}
