package main

import (
	"fmt"

	"fieldprobe/internal/bootstrap"
	"fieldprobe/internal/config"
	"fieldprobe/internal/console"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	overrides config.Overrides
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "fieldprobe",
		Short: "Inspect report viewer pages and locate their period, date and reason fields",
		Long: `fieldprobe loads a report page, either live in Chromium or from a saved HTML file,
and reports which form controls sit next to the period, date range and reason labels,
together with hints for driving them from playwright.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.overrides.URL, "url", "", "page to open in the browser (overrides PROBE_URL)")
	pf.StringVar(&flags.overrides.File, "file", "", "saved HTML page to read instead of a browser (overrides PROBE_FILE)")
	pf.StringVarP(&flags.overrides.Format, "format", "o", "", "output format: text, table, json or yaml")
	pf.BoolVar(&flags.overrides.Copy, "copy", false, "copy the rendered result to the clipboard")
	pf.IntVar(&flags.overrides.Radius, "radius", 0, "label search radius in DOM hops")

	rootCmd.MarkFlagsMutuallyExclusive("url", "file")

	rootCmd.AddCommand(
		flags.workflowCmd(console.CmdAnalyze, "Full field analysis of the page", cobra.NoArgs),
		flags.workflowCmd(console.CmdDiagnose, "State of the configured report fields", cobra.NoArgs),
		flags.workflowCmd(console.CmdUnlock, "Select the configured period and unlock dependent fields", cobra.NoArgs),
		flags.workflowCmd(console.CmdPeriods, "List period options and test the configured value", cobra.NoArgs),
		flags.workflowCmd(console.CmdDump, "Dump the page structure", cobra.NoArgs),
		flags.interactCmd(),
		flags.workflowCmd(console.CmdShell, "Open an interactive shell on the page", cobra.NoArgs),
	)

	return rootCmd
}

func (f *rootFlags) workflowCmd(name, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(bootstrap.Command{Name: name, Args: args})
		},
	}
}

func (f *rootFlags) interactCmd() *cobra.Command {
	var click bool

	cmd := &cobra.Command{
		Use:   "interact <selector>",
		Short: "Describe an element in the viewer frame and optionally click it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if click {
				args = append(args, "click")
			}

			return f.run(bootstrap.Command{Name: console.CmdInteract, Args: args})
		},
	}

	cmd.Flags().BoolVar(&click, "click", false, "click the element after describing it")

	return cmd
}

func (f *rootFlags) run(command bootstrap.Command) error {
	conf, err := config.GetConfig()
	if err != nil {
		return err
	}

	if err := conf.Apply(f.overrides); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	app := bootstrap.NewApp(conf, command)
	if err := app.Err(); err != nil {
		return err
	}

	app.Run()

	return nil
}
