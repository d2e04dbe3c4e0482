package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"searchfox/internal/adapter/analyzer"
)

var (
	definePath  string
	getFileFrom int
	getFileTo   int
)

var defineCmd = &cobra.Command{
	Use:   "define SYMBOL",
	Short: "Print the complete definition of a symbol",
	Long: `Look a symbol up, fetch the file holding its definition and print the
whole function, constructor or class body with line numbers. Overloads are
shown one after another.

Examples:
  searchfox define 'mozilla::dom::Element::GetAttr'
  searchfox define AddRef -p xpcom/base`,
	Args: cobra.ExactArgs(1),
	RunE: runDefine,
}

var getFileCmd = &cobra.Command{
	Use:   "get-file PATH",
	Short: "Print a file from the repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetFile,
}

func init() {
	rootCmd.AddCommand(defineCmd)
	defineCmd.Flags().StringVarP(&definePath, "path", "p", "", "restrict hits to this path")

	rootCmd.AddCommand(getFileCmd)
	getFileCmd.Flags().IntVar(&getFileFrom, "from", 0, "first line to print")
	getFileCmd.Flags().IntVar(&getFileTo, "to", 0, "last line to print")
}

func runDefine(cmd *cobra.Command, args []string) error {
	svc, err := newServices(GetConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	out, err := svc.define().Define(cmd.Context(), args[0], definePath)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runGetFile(cmd *cobra.Command, args []string) error {
	svc, err := newServices(GetConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	lines, err := svc.source.FetchFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	from, to := lineRange(len(lines), getFileFrom, getFileTo)
	if from > to {
		return fmt.Errorf("%s: lines %d-%d: %w", args[0], getFileFrom, getFileTo, analyzer.ErrLineOutOfRange)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines[from-1:to], "\n"))
	return nil
}

// lineRange clamps a 1-indexed inclusive range to the file; zero means
// unbounded.
func lineRange(total, from, to int) (int, int) {
	if from < 1 {
		from = 1
	}
	if to < 1 || to > total {
		to = total
	}
	return from, to
}
