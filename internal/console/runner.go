package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"fieldprobe/internal/config"
	"fieldprobe/internal/ports"
	"fieldprobe/internal/report"
	"fieldprobe/internal/usecase"
	"fieldprobe/pkg/apperr"
	"fieldprobe/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	CmdAnalyze  = "analyze"
	CmdDiagnose = "diagnose"
	CmdUnlock   = "unlock"
	CmdPeriods  = "periods"
	CmdInteract = "interact"
	CmdDump     = "dump"
	CmdShell    = "shell"

	clickArg = "click"
)

// Runner executes one named workflow and prints its rendered result.
type Runner struct {
	config    *config.Config
	logger    *zap.Logger
	usecase   *usecase.Service
	renderer  *report.Renderer
	clipboard ports.Clipboard
	out       io.Writer
}

type RunnerParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Usecase   *usecase.Service
	Renderer  *report.Renderer
	Clipboard ports.Clipboard
}

func NewRunner(params RunnerParams) *Runner {
	return &Runner{
		config:    params.Config,
		logger:    params.Logger.With(zap.String(logg.Layer, "Runner")),
		usecase:   params.Usecase,
		renderer:  params.Renderer,
		clipboard: params.Clipboard,
		out:       os.Stdout,
	}
}

// Run executes command. interact takes a selector and an optional "click".
func (r *Runner) Run(ctx context.Context, command string, args []string) error {
	const op = "Run"
	logger := r.logger.With(zap.String(logg.Operation, op), zap.String(logg.Action, command))

	result, err := r.execute(ctx, command, args)
	if err != nil {
		if apperr.IsAbsent(err) {
			// Absent or unreachable elements end the workflow with a diagnostic line.
			fmt.Fprintf(r.out, "%s: %s (%v)\n", command, apperr.ReasonOf(err), err)
		}

		return err
	}

	out, err := r.renderer.Render(result)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(r.out, out); err != nil {
		return err
	}

	if r.config.OutputConfig.Copy {
		method, err := r.clipboard.Copy(ctx, out)
		if err != nil {
			logger.Warn("Copy to clipboard failed", zap.Error(err))

			return nil
		}

		logger.Info("Result copied", zap.String("method", method))
	}

	return nil
}

func (r *Runner) execute(ctx context.Context, command string, args []string) (any, error) {
	const op = "execute"

	switch command {
	case CmdAnalyze:
		return r.usecase.Analyzer.Analyze(ctx)
	case CmdDiagnose:
		return r.usecase.Diagnoser.Diagnose(ctx)
	case CmdUnlock:
		return r.usecase.Prober.Unlock(ctx)
	case CmdPeriods:
		return r.usecase.Prober.Periods(ctx)
	case CmdInteract:
		if len(args) == 0 {
			return nil, apperr.InvalidReqError(op, "selector", fmt.Errorf("usage: interact <selector> [%s]", clickArg))
		}

		click := len(args) > 1 && strings.EqualFold(args[len(args)-1], clickArg)
		selector := args[0]

		if len(args) > 1 {
			end := len(args)
			if click {
				end--
			}

			selector = strings.Join(args[:end], " ")
		}

		return r.usecase.Prober.Interact(ctx, selector, click)
	case CmdDump:
		return r.usecase.Dumper.Dump(ctx)
	default:
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, fmt.Errorf("unknown command %q", command), map[string]any{
			apperr.MetaReason: "unknown_command",
			apperr.MetaAction: command,
		})
	}
}
