package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"searchfox/internal/adapter/report"
	"searchfox/internal/adapter/searchfox"
	"searchfox/internal/domain"
	"searchfox/internal/usecase"
)

var (
	callsDepth    int
	callsJSON     bool
	callsProgress bool
)

var callsFromCmd = &cobra.Command{
	Use:   "calls-from SYMBOL",
	Short: "Show what a function calls",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalls(domain.CallsFrom),
}

var callsToCmd = &cobra.Command{
	Use:   "calls-to SYMBOL",
	Short: "Show what calls a function",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalls(domain.CallsTo),
}

var callsBetweenCmd = &cobra.Command{
	Use:   "calls-between SOURCE,TARGET",
	Short: "Show direct calls from one class or function into another",
	Long: `Show the call edges whose caller lies under SOURCE and whose callee lies
under TARGET. Both are qualified names, matched as scope prefixes.

Example:
  searchfox calls-between 'mozilla::dom::Document,mozilla::PresShell' --depth 2`,
	Args: cobra.ExactArgs(1),
	RunE: runCallsBetween,
}

func init() {
	for _, c := range []*cobra.Command{callsFromCmd, callsToCmd, callsBetweenCmd} {
		rootCmd.AddCommand(c)
		c.Flags().IntVar(&callsDepth, "depth", 0, "traversal depth (default from config)")
		c.Flags().BoolVar(&callsJSON, "json", false, "print the raw call graph JSON from searchfox")
		c.Flags().BoolVar(&callsProgress, "progress", true, "show traversal progress on stderr")
	}
}

func depthOrDefault() int {
	if callsDepth > 0 {
		return callsDepth
	}
	return GetConfig().Graph.Depth
}

// newProgress returns a spinner advanced once per traversal level.
func newProgress(desc string) *progressbar.ProgressBar {
	var w io.Writer = os.Stderr
	if !callsProgress {
		w = io.Discard
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func trackLevels(uc *usecase.CallGraphUseCase, bar *progressbar.ProgressBar, desc string) *usecase.CallGraphUseCase {
	return uc.OnLevel(func(level, edges int) {
		bar.Describe(fmt.Sprintf("%s: level %d, %d edges", desc, level, edges))
		_ = bar.Add(1)
	})
}

func runCalls(dir domain.Direction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		symbol := args[0]
		depth := depthOrDefault()

		svc, err := newServices(GetConfig(), logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		if callsJSON {
			q := searchfox.CallGraphQuery{Depth: depth}
			if dir == domain.CallsFrom {
				q.CallsFrom = symbol
			} else {
				q.CallsTo = symbol
			}
			return printRaw(cmd, svc, q)
		}

		desc := fmt.Sprintf("%s %s", dir, symbol)
		bar := newProgress(desc)
		uc := trackLevels(svc.callGraph(), bar, desc)

		var graphs []domain.CallGraph
		if dir == domain.CallsFrom {
			graphs, err = uc.CallsFrom(cmd.Context(), symbol, depth)
		} else {
			graphs, err = uc.CallsTo(cmd.Context(), symbol, depth)
		}
		_ = bar.Finish()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Graphs(symbol, graphs))
		return nil
	}
}

func runCallsBetween(cmd *cobra.Command, args []string) error {
	source, target, ok := strings.Cut(args[0], ",")
	source, target = strings.TrimSpace(source), strings.TrimSpace(target)
	if !ok || source == "" || target == "" {
		return fmt.Errorf("expected SOURCE,TARGET, got %q", args[0])
	}
	depth := depthOrDefault()

	svc, err := newServices(GetConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if callsJSON {
		return printRaw(cmd, svc, searchfox.CallGraphQuery{Source: source, Target: target, Depth: depth})
	}

	desc := "calls-between " + args[0]
	bar := newProgress(desc)
	edges, err := trackLevels(svc.callGraph(), bar, desc).CallsBetween(cmd.Context(), source, target, depth)
	_ = bar.Finish()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Between(domain.ParseScopePath(source), domain.ParseScopePath(target), edges))
	return nil
}

func printRaw(cmd *cobra.Command, svc *services, q searchfox.CallGraphQuery) error {
	raw, err := svc.client.CallGraphRaw(cmd.Context(), q)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
