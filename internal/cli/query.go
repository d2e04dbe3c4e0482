package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"searchfox/internal/adapter/report"
	"searchfox/internal/adapter/searchfox"
)

var (
	searchOpts     searchfox.SearchOptions
	searchCategory string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the index for text, symbols or paths",
	Long: `Search the searchfox index. Plain text queries scan the whole tree, so
they need a --path restriction unless search.allow_fulltext is set.

Examples:
  searchfox search -q "nsIContent" -p dom/base
  searchfox search --symbol _ZN7mozilla3dom7Element7GetAttrEv
  searchfox search --id AddRef --cpp -l 20
  searchfox search -p "dom/media/*.webidl"`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	f := searchCmd.Flags()
	f.StringVarP(&searchOpts.Query, "query", "q", "", "search query")
	f.StringVarP(&searchOpts.Path, "path", "p", "", "path filter")
	f.BoolVarP(&searchOpts.Case, "case", "C", false, "case sensitive")
	f.BoolVarP(&searchOpts.Regexp, "regexp", "r", false, "treat the query as a regular expression")
	f.IntVarP(&searchOpts.Limit, "limit", "l", 0, "maximum results (default from config)")
	f.IntVar(&searchOpts.Context, "context", 0, "lines of context around each hit")
	f.StringVar(&searchOpts.Symbol, "symbol", "", "search a symbol by its mangled name")
	f.StringVar(&searchOpts.ID, "id", "", "search an exact identifier")
	f.BoolVar(&searchOpts.Cpp, "cpp", false, "only C++ files")
	f.BoolVar(&searchOpts.C, "c", false, "only C files")
	f.BoolVar(&searchOpts.WebIDL, "webidl", false, "only WebIDL files")
	f.BoolVar(&searchOpts.JS, "js", false, "only JavaScript and TypeScript files")
	f.StringVar(&searchCategory, "category", "", "all, exclude-tests, exclude-generated, exclude-tests-and-generated, only-tests, only-generated, only-normal")
	f.BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	opts := searchOpts
	if opts.Query == "" && opts.Symbol == "" && opts.ID == "" && opts.Path == "" {
		return fmt.Errorf("one of --query, --symbol, --id or --path is required")
	}
	var err error
	if opts.Category, err = searchfox.ParseCategory(searchCategory); err != nil {
		return err
	}
	if opts.Limit <= 0 {
		opts.Limit = cfg.Search.Limit
	}

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.search().Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), report.SearchResults(results, opts.PathOnly()))
	return nil
}
