package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	pkgio "github.com/matzehuels/voltseed/pkg/io"
	"github.com/matzehuels/voltseed/pkg/pipeline"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// estimateOpts holds the command-line flags for the estimate command.
type estimateOpts struct {
	output  string // result file path; stdout when empty
	format  string // "table" or "json"
	fill    bool   // give unresolved buses the flat start
	noCache bool
	refresh bool
	save    bool
}

// estimateCommand creates the estimate command.
func (c *CLI) estimateCommand() *cobra.Command {
	opts := estimateOpts{format: outputTable}

	cmd := &cobra.Command{
		Use:   "estimate <network>",
		Short: "Estimate initial bus voltages of a network file",
		Long: `Estimate computes a starting voltage for every bus of a network.

The network is read from a JSON, TOML or YAML file. Buses that no reference
source reaches stay unresolved unless --fill gives them the flat start
(1.0 pu, 0°).`,
		Example: `  voltseed estimate grid.json
  voltseed estimate grid.yaml --fill -o voltages.json
  voltseed estimate grid.toml --format json --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEstimate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result JSON to this file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "stdout format: table or json")
	cmd.Flags().BoolVar(&opts.fill, "fill", false, "fill unresolved buses with the flat start")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the run for later retrieval")

	cmd.ValidArgsFunction = completeNetworkFile
	registerFormatCompletion(cmd, []string{
		outputTable + "\tstyled voltage table",
		outputJSON + "\tresult JSON with nulls for unresolved buses",
	})

	return cmd
}

func (c *CLI) runEstimate(cmd *cobra.Command, path string, opts estimateOpts) error {
	if opts.format != outputTable && opts.format != outputJSON {
		return voltErrors.New(voltErrors.ErrCodeInvalidInput, "invalid format %q (want table or json)", opts.format)
	}
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	net, err := pkgio.Import(path)
	if err != nil {
		return err
	}
	logger.Debug("network loaded", "path", path, "buses", len(net.Buses), "transformers", len(net.Transformers))

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	// JSON on stdout is meant for pipes, so it gets no animation.
	spinner := c.spinnerFor(ctx, net.Name, path, opts.format == outputJSON)
	spinner.Start("Estimating")
	prog := newProgress(logger)
	res, err := runner.Execute(ctx, net, pipeline.Options{
		FillUnresolved: opts.fill,
		Refresh:        opts.refresh,
		Save:           opts.save,
	})
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Estimated %d buses", res.Table.Len()))

	if err := pkgio.CheckFinite(res.Table); err != nil {
		return err
	}

	if opts.output != "" {
		if err := pkgio.ExportResultJSON(res.Table, opts.output); err != nil {
			return err
		}
	}

	// JSON output goes to stdout without status lines.
	if opts.format == outputJSON {
		return pkgio.WriteResultJSON(res.Table, c.Out)
	}

	writeVoltageTable(c.Out, net, res.Table)
	printStats(res.Stats, res.CacheInfo.EstimateHit)
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	if opts.output != "" {
		printSuccess("Result written")
		printFile(opts.output)
	}
	if res.RunID != "" {
		printKeyValue("Run", res.RunID)
		printNextStep("Show it again", "voltseed runs show "+res.RunID)
	} else {
		printNextStep("Draw it", "voltseed render "+path+" --voltages")
	}
	return nil
}
