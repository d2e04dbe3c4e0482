package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"searchfox/internal/adapter/report"
	"searchfox/internal/adapter/searchfox"
	"searchfox/internal/domain"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the searchfox tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	svc, err := newServices(GetConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	return mcpserver.ServeStdio(newMCPServer(svc))
}

func newMCPServer(svc *services) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("searchfox", searchfox.Version, mcpserver.WithToolCapabilities(false))

	s.AddTool(defineTool(), makeDefineHandler(svc))
	s.AddTool(searchTool(), makeSearchHandler(svc))
	s.AddTool(callsTool("calls_from", "List the functions a function calls, transitively up to depth."), makeCallsHandler(svc, true))
	s.AddTool(callsTool("calls_to", "List the functions that call a function, transitively up to depth."), makeCallsHandler(svc, false))
	s.AddTool(callsBetweenTool(), makeCallsBetweenHandler(svc))
	s.AddTool(fieldLayoutTool(), makeFieldLayoutHandler(svc))
	s.AddTool(getFileTool(), makeGetFileHandler(svc))
	return s
}

// --- Tool schema builders ---

var readOnly = []mcp.ToolOption{
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithDestructiveHintAnnotation(false),
}

func tool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts, readOnly...)...)
}

func defineTool() mcp.Tool {
	return tool("define",
		mcp.WithDescription("Print the complete source of a function, constructor or class by its (qualified) name, with line numbers."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Symbol name, e.g. 'mozilla::dom::Element::GetAttr'")),
		mcp.WithString("path", mcp.Description("Optional path filter")),
	)
}

func searchTool() mcp.Tool {
	return tool("search",
		mcp.WithDescription("Search the code index. Full-text queries need a path unless allowed by configuration."),
		mcp.WithString("query", mcp.Description("Text query")),
		mcp.WithString("path", mcp.Description("Path filter")),
		mcp.WithString("id", mcp.Description("Exact identifier")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default from config)")),
	)
}

func callsTool(name, desc string) mcp.Tool {
	return tool(name,
		mcp.WithDescription(desc),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Qualified function name")),
		mcp.WithNumber("depth", mcp.Description("Traversal depth (default from config)")),
	)
}

func callsBetweenTool() mcp.Tool {
	return tool("calls_between",
		mcp.WithDescription("List direct calls from the source scope into the target scope."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Qualified class or function name")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Qualified class or function name")),
		mcp.WithNumber("depth", mcp.Description("Traversal depth (default from config)")),
	)
}

func fieldLayoutTool() mcp.Tool {
	return tool("field_layout",
		mcp.WithDescription("Show the size, alignment, bases and fields of a C++ class."),
		mcp.WithString("class", mcp.Required(), mcp.Description("Qualified class name")),
	)
}

func getFileTool() mcp.Tool {
	return tool("get_file",
		mcp.WithDescription("Fetch a file from the repository."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Repository-relative path")),
	)
}

// --- Handler factories ---

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(report.ErrorMessage(err))
}

func makeDefineHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := req.GetString("symbol", "")
		if symbol == "" {
			return mcp.NewToolResultError("symbol is required"), nil
		}
		out, err := svc.define().Define(ctx, symbol, req.GetString("path", ""))
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func makeSearchHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		opts := searchfox.SearchOptions{
			Query: req.GetString("query", ""),
			Path:  req.GetString("path", ""),
			ID:    req.GetString("id", ""),
			Limit: req.GetInt("limit", svc.cfg.Search.Limit),
		}
		if opts.Query == "" && opts.Path == "" && opts.ID == "" {
			return mcp.NewToolResultError("one of query, path or id is required"), nil
		}
		results, err := svc.search().Search(ctx, opts)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(report.SearchResults(results, opts.PathOnly())), nil
	}
}

func makeCallsHandler(svc *services, from bool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := req.GetString("symbol", "")
		if symbol == "" {
			return mcp.NewToolResultError("symbol is required"), nil
		}
		depth := req.GetInt("depth", svc.cfg.Graph.Depth)
		uc := svc.callGraph()
		call := uc.CallsTo
		if from {
			call = uc.CallsFrom
		}
		graphs, err := call(ctx, symbol, depth)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(report.Graphs(symbol, graphs)), nil
	}
}

func makeCallsBetweenHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source := strings.TrimSpace(req.GetString("source", ""))
		target := strings.TrimSpace(req.GetString("target", ""))
		if source == "" || target == "" {
			return mcp.NewToolResultError("source and target are required"), nil
		}
		edges, err := svc.callGraph().CallsBetween(ctx, source, target, req.GetInt("depth", svc.cfg.Graph.Depth))
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(report.Between(domain.ParseScopePath(source), domain.ParseScopePath(target), edges)), nil
	}
}

func makeFieldLayoutHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		class := req.GetString("class", "")
		if class == "" {
			return mcp.NewToolResultError("class is required"), nil
		}
		layout, err := svc.fieldLayout().Layout(ctx, class)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(report.FieldLayout(layout)), nil
	}
}

func makeGetFileHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		lines, err := svc.source.FetchFile(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", path, report.ErrorMessage(err))), nil
		}
		return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
	}
}
