package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/voltseed/pkg/cache"
	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	pkgio "github.com/matzehuels/voltseed/pkg/io"
)

// runsCommand creates the command group for saved runs.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List, show and delete saved runs",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsDeleteCommand())

	return cmd
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand() *cobra.Command {
	limit := 20

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return voltErrors.New(voltErrors.ErrCodeInvalidInput, "limit must not be negative")
			}
			runs, err := newStore()
			if err != nil {
				return err
			}
			defer runs.Close()

			list, err := runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No saved runs")
				printNextStep("Save one", "voltseed estimate <network> --save")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, r := range list {
				rows = append(rows, []string{
					r.ID,
					r.Network,
					cache.ShortHash(r.NetworkHash),
					strconv.Itoa(len(r.Buses)),
					strconv.Itoa(r.Stats.Unresolved),
					formatRelativeTime(r.CreatedAt),
				})
			}
			tbl := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Network", "Hash", "Buses", "Unresolved", "Created").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return styleHeader
					}
					if col == 0 || col == 2 || col == 5 {
						return StyleDim
					}
					return lipgloss.NewStyle()
				})
			fmt.Fprintln(c.Out, tbl.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", limit, "maximum number of runs (0 for all)")
	return cmd
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the voltage table of a saved run",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: completeRunID,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return pkgio.WriteResultJSON(res.Table, c.Out)
			}

			printKeyValue("Run", res.RunID)
			printKeyValue("Hash", res.NetworkHash)
			writeVoltageTable(c.Out, nil, res.Table)
			printStats(res.Stats, true)
			for _, w := range res.Warnings {
				printWarning("%s", w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result JSON")
	return cmd
}

// runsDeleteCommand creates the "runs delete" subcommand.
func (c *CLI) runsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete saved runs",
		Args:  cobra.MinimumNArgs(1),

		ValidArgsFunction: completeRunIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := voltErrors.ValidateRunID(id); err != nil {
					return err
				}
			}
			runs, err := newStore()
			if err != nil {
				return err
			}
			defer runs.Close()

			for _, id := range args {
				if err := runs.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}
