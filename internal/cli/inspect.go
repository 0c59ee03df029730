package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	pkgio "github.com/matzehuels/voltseed/pkg/io"
	"github.com/matzehuels/voltseed/pkg/pipeline"
)

// inspectCommand creates the inspect command, an interactive browser over
// the voltage table of a network file or a saved run.
func (c *CLI) inspectCommand() *cobra.Command {
	var fill, noCache bool

	cmd := &cobra.Command{
		Use:   "inspect <network|run-id>",
		Short: "Browse estimated voltages interactively",
		Long: `Inspect opens a terminal browser over the voltage table.

The argument is either a network file, which is estimated first, or the ID
of a saved run. Saved runs carry no network, so element details are only
shown for network files.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNetworkOrRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := c.loadForInspect(cmd, runner, args[0], fill)
			if err != nil {
				return err
			}

			model := NewInspectModel(res.Network, res.Table, res.Stats)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&fill, "fill", false, "fill unresolved buses with the flat start")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// loadForInspect estimates the network file at arg, or loads the saved run
// with ID arg when no such file exists.
func (c *CLI) loadForInspect(cmd *cobra.Command, runner *pipeline.Runner, arg string, fill bool) (*pipeline.Result, error) {
	if _, err := os.Stat(arg); err != nil && voltErrors.ValidateRunID(arg) == nil {
		return runner.Load(cmd.Context(), arg)
	}
	net, err := pkgio.Import(arg)
	if err != nil {
		return nil, err
	}
	return runner.Execute(cmd.Context(), net, pipeline.Options{FillUnresolved: fill})
}
