package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/voltseed/pkg/render"
)

// networkExtensions are the file types pkg/io can import.
var networkExtensions = []string{"json", "toml", "yaml", "yml"}

// diagramFormats are the render formats offered on --format.
var diagramFormats = []string{
	string(render.FormatSVG) + "\tvector diagram",
	string(render.FormatDOT) + "\tGraphviz source",
	string(render.FormatPDF) + "\trequires rsvg-convert",
	string(render.FormatPNG) + "\trequires rsvg-convert",
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for voltseed.

Completions cover subcommands and flags, network files (.json, .toml, .yaml)
for estimate, render and inspect, the diagram formats of render --format,
and the IDs of saved runs for inspect and runs show/delete.

Bash:
  $ source <(voltseed completion bash)
  $ voltseed completion bash > /etc/bash_completion.d/voltseed

Zsh:
  $ voltseed completion zsh > "${fpath[1]}/_voltseed"

Fish:
  $ voltseed completion fish > ~/.config/fish/completions/voltseed.fish

PowerShell:
  PS> voltseed completion powershell | Out-String | Invoke-Expression

Start a new shell afterwards, then try:
  $ voltseed estimate <TAB>            # network files
  $ voltseed render grid.json -f <TAB> # svg, dot, pdf, png
  $ voltseed runs show <TAB>           # saved run IDs
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeNetworkFile completes the single network file argument.
func completeNetworkFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return networkExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeRunID completes a single saved run ID.
func completeRunID(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeRunIDs(cmd, args, toComplete)
}

// completeRunIDs offers saved run IDs not yet on the command line, annotated
// with their network name.
func completeRunIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ids, err := savedRunIDs(cmd.Context(), toComplete, args)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeNetworkOrRun completes inspect's argument, which is a network file or
// a saved run ID.
func completeNetworkOrRun(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids, _ := savedRunIDs(cmd.Context(), toComplete, nil)
	if len(ids) > 0 {
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
	return networkExtensions, cobra.ShellCompDirectiveFilterFileExt
}

func savedRunIDs(ctx context.Context, prefix string, exclude []string) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := newStore()
	if err != nil {
		return nil, err
	}
	defer runs.Close()

	list, err := runs.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var ids []string
	for _, r := range list {
		if skip[r.ID] || !strings.HasPrefix(r.ID, prefix) {
			continue
		}
		ids = append(ids, r.ID+"\t"+r.Network)
	}
	return ids, nil
}

// registerFormatCompletion offers values for a command's --format flag.
func registerFormatCompletion(cmd *cobra.Command, values []string) {
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}
