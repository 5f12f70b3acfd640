package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"fieldprobe/internal/config"
	"fieldprobe/pkg/logg"

	"github.com/fatih/color"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errExit = errors.New("exit")

// Interface is the interactive shell. Each line runs one workflow against the
// page that is already open.
type Interface struct {
	config *config.Config
	logger *zap.Logger
	runner *Runner
	in     io.Reader
	out    io.Writer
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	prompt *color.Color
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
	Runner *Runner
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())

	prompt := color.New(color.FgGreen, color.Bold)
	if !params.Config.OutputConfig.Color {
		prompt.DisableColor()
	}

	return &Interface{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, "Console")),
		runner: params.Runner,
		in:     os.Stdin,
		out:    os.Stdout,
		ctx:    ctx,
		cancel: cancel,
		prompt: prompt,
	}
}

// Start reads commands until exit, end of input or Stop.
func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	scanner := bufio.NewScanner(i.in)

	for {
		if i.ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(i.out, i.prompt.Sprint("\nfieldprobe> "))

		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Fprintf(i.out, "Error: %v\n", err)
		}
	}
}

func (i *Interface) Stop() error {
	i.once.Do(func() {
		i.logger.Info("Stopping console interface...")
		i.cancel()
	})

	return nil
}

func (i *Interface) handleCommand(input string) error {
	fields := strings.Fields(input)
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		fmt.Fprintln(i.out, "Shutting down...")

		return errExit
	case CmdShell:
		return fmt.Errorf("already in the shell")
	default:
		return i.runner.Run(i.ctx, command, args)
	}
}

func (i *Interface) printBanner() {
	source := i.config.ProbeConfig.TargetURL
	if i.config.Offline() {
		source = i.config.ProbeConfig.File
	}

	fmt.Fprintf(i.out, "fieldprobe shell\nsource: %s\nframe:  %s\n", source, i.config.ProbeConfig.FrameSelector)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  analyze               - Full field analysis of the page
  diagnose              - State of the configured report fields
  unlock                - Select the period and unlock dependent fields (live only)
  periods               - List period options and test the configured value (live only)
  interact <sel> [click] - Describe an element in the viewer frame, optionally click it (live only)
  dump                  - Dump the page structure
  help, h               - Show this help message
  exit, quit, q         - Exit the shell
`
	fmt.Fprint(i.out, help)
}
