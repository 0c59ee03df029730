package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	pkgio "github.com/matzehuels/voltseed/pkg/io"
	"github.com/matzehuels/voltseed/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file path; "-" writes to stdout
	format   string // "dot", "svg", "pdf" or "png"
	voltages bool   // label buses with their estimated voltage
	fill     bool   // flat-fill unresolved buses before labelling
	noCache  bool
}

// renderCommand creates the render command for drawing a network.
//
// Default settings:
//   - format: svg
//   - output: the network file name with the format's extension
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: string(pipeline.DefaultFormat)}

	cmd := &cobra.Command{
		Use:   "render <network>",
		Short: "Draw a network as DOT, SVG, PDF or PNG",
		Long: `Render draws the buses of a network as nodes and its lines and
transformers as edges, coloured by voltage level. With --voltages every bus
is labelled with its estimated voltage.

PDF and PNG output require rsvg-convert on the PATH.`,
		Example: `  voltseed render grid.json
  voltseed render grid.json --voltages --format png -o grid.png
  voltseed render grid.json --format dot -o - | dot -Tsvg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (- for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, pdf, png")
	cmd.Flags().BoolVar(&opts.voltages, "voltages", false, "label buses with estimated voltages")
	cmd.Flags().BoolVar(&opts.fill, "fill", false, "fill unresolved buses with the flat start")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	cmd.ValidArgsFunction = completeNetworkFile
	registerFormatCompletion(cmd, diagramFormats)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts renderOpts) error {
	if err := pipeline.ValidateFormat(opts.format); err != nil {
		return voltErrors.Wrap(voltErrors.ErrCodeInvalidInput, err, "invalid format %q", opts.format)
	}
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	net, err := pkgio.Import(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Format:         opts.format,
		Voltages:       opts.voltages,
		FillUnresolved: opts.fill,
	}

	toStdout := opts.output == "-"
	out := opts.output
	if out == "" {
		out = defaultOutput(path, opts.format)
	}

	spinner := c.spinnerFor(ctx, net.Name, path, toStdout)
	prog := newProgress(logger)

	res := &pipeline.Result{Network: net}
	if opts.voltages {
		spinner.Start("Estimating")
		if res, err = runner.Execute(ctx, net, popts); err != nil {
			spinner.StopWithError("Estimate failed")
			return err
		}
		spinner.Stage(fmt.Sprintf("Rendering %s of", opts.format))
	} else {
		spinner.Start(fmt.Sprintf("Rendering %s of", opts.format))
	}

	data, hit, err := runner.RenderWithCacheInfo(ctx, res, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	if toStdout {
		spinner.Stop()
	} else {
		spinner.StopWithSuccess(fmt.Sprintf("Rendered %s", filepath.Base(path)))
	}
	for _, w := range res.Warnings {
		logger.Warn(w)
	}
	prog.done(fmt.Sprintf("Rendered %d buses", len(net.Buses)))
	logger.Debug("render", "format", opts.format, "bytes", len(data), "cached", hit)

	if err := writeStdoutOr(out, data); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	if !toStdout {
		printFile(out)
	}
	return nil
}

// defaultOutput derives the output path from the input path by swapping the
// extension for the format.
func defaultOutput(input, format string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "." + format
}

// writeStdoutOr writes data to path, or to stdout when path is "-".
func writeStdoutOr(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
