package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchfox/config"
	"searchfox/internal/adapter/searchfox"
	"searchfox/internal/domain"
)

const symbolBody = `{
  "normal": {
    "Definitions (Foo)": [
      {"path": "dom/a.cpp", "lines": [{"lno": 2, "line": "int Foo(int x) {", "upsearch": "symbol:_Z3Fooi"}]}
    ]
  }
}`

const fooFile = "// a.cpp\nint Foo(int x) {\n  return x;\n}\n"

func fakeSearchfox(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mozilla-central/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "id:Foo" {
			_, _ = io.WriteString(w, symbolBody)
			return
		}
		_, _ = io.WriteString(w, `{"normal": [{"path": "dom/a.cpp", "lines": [{"lno": 3, "line": "  return x;"}]}]}`)
	})
	mux.HandleFunc("/mozilla-central/query/default", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "calls-from:'Foo' depth:1 graph-format:json" {
			_, _ = io.WriteString(w, `{"SymbolGraphCollection": {
				"graphs": [{"edges": [{"from": "_Z3Fooi", "to": "_Z3Barv"}]}],
				"jumprefs": {
					"_Z3Fooi": {"pretty": "Foo", "sym": "_Z3Fooi", "jumps": {"def": "dom/a.cpp#2"}},
					"_Z3Barv": {"pretty": "Bar", "sym": "_Z3Barv", "jumps": {"def": "dom/b.cpp#5"}}
				}}}`)
			return
		}
		_, _ = io.WriteString(w, `{"SymbolGraphCollection": {"graphs": [], "jumprefs": {}}}`)
	})
	mux.HandleFunc("/raw/mozilla/firefox/main/dom/a.cpp", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, fooFile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Client.BaseURL = srv.URL
	cfg.Client.RawBaseURL = srv.URL + "/raw"
	cfg.Cache.Enabled = false
	return cfg
}

func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	searchOpts = searchfox.SearchOptions{}
	searchCategory, searchJSON = "", false
	callsDepth, callsJSON = 0, false
	definePath, getFileFrom, getFileTo = "", 0, 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDefineCommand(t *testing.T) {
	path := writeConfig(t, testConfig(fakeSearchfox(t)))

	out, err := runCLI(t, "--config", path, "define", "Foo")
	require.NoError(t, err)
	assert.Contains(t, out, "dom/a.cpp:2 (function, lines 2-4)")
	assert.Contains(t, out, ">>>    2: int Foo(int x) {")
	assert.Contains(t, out, "       4: }")
}

func TestDefineCommand_NoMatch(t *testing.T) {
	path := writeConfig(t, testConfig(fakeSearchfox(t)))

	_, err := runCLI(t, "--config", path, "define", "Nope")
	assert.ErrorIs(t, err, domain.ErrNoMatchingSymbol)
}

func TestSearchCommand(t *testing.T) {
	path := writeConfig(t, testConfig(fakeSearchfox(t)))

	_, err := runCLI(t, "--config", path, "search", "-q", "return")
	assert.ErrorIs(t, err, domain.ErrExpensiveSearch)

	out, err := runCLI(t, "--config", path, "search", "-q", "return", "-p", "dom")
	require.NoError(t, err)
	assert.Contains(t, out, "dom/a.cpp:3:   return x;")
	assert.Contains(t, out, "Total matches: 1")

	_, err = runCLI(t, "--config", path, "search", "-q", "return", "-p", "dom", "--category", "bogus")
	assert.Error(t, err)
}

func TestCallsFromCommand(t *testing.T) {
	path := writeConfig(t, testConfig(fakeSearchfox(t)))

	out, err := runCLI(t, "--config", path, "calls-from", "Foo", "--depth", "2", "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, out, "calls-from Foo (depth 2, reached 2)")
	assert.Contains(t, out, "[1] Foo -> Bar  (dom/b.cpp:5)")
	assert.Contains(t, out, "_Z3Barv")
}

func TestCallsBetweenCommand_BadArgument(t *testing.T) {
	path := writeConfig(t, testConfig(fakeSearchfox(t)))

	_, err := runCLI(t, "--config", path, "calls-between", "OnlyOne")
	assert.Error(t, err)
}

func TestGetFileCommand(t *testing.T) {
	path := writeConfig(t, testConfig(fakeSearchfox(t)))

	out, err := runCLI(t, "--config", path, "get-file", "dom/a.cpp", "--from", "2", "--to", "3")
	require.NoError(t, err)
	assert.Equal(t, "int Foo(int x) {\n  return x;\n", out)
}

func TestConfigPathCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchfox.yaml")

	out, err := runCLI(t, "--config", path, "config-path", "--init")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
	assert.FileExists(t, path)
}

func TestFileCacheIsUsed(t *testing.T) {
	srv := fakeSearchfox(t)
	cfg := testConfig(srv)
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()

	svc, err := newServices(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	_, err = svc.source.FetchFile(context.Background(), "dom/a.cpp")
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	srv.Close()
	svc, err = newServices(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer svc.Close()
	lines, err := svc.source.FetchFile(context.Background(), "dom/a.cpp")
	require.NoError(t, err, "second read is served from the file cache")
	assert.Equal(t, []string{"// a.cpp", "int Foo(int x) {", "  return x;", "}"}, lines)
}

func TestLocalCheckoutIsPreferred(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mach"), nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dom"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dom", "a.cpp"), []byte("local\n"), 0644))

	cfg := testConfig(fakeSearchfox(t))
	cfg.Local.Root = root
	svc, err := newServices(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer svc.Close()

	lines, err := svc.source.FetchFile(context.Background(), "dom/a.cpp")
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, lines)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestMCPHandlers(t *testing.T) {
	svc, err := newServices(testConfig(fakeSearchfox(t)), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer svc.Close()
	require.NotNil(t, newMCPServer(svc))

	out, isErr := callTool(t, makeDefineHandler(svc), map[string]any{"symbol": "Foo"})
	assert.False(t, isErr)
	assert.Contains(t, out, ">>>    2: int Foo(int x) {")

	out, isErr = callTool(t, makeDefineHandler(svc), map[string]any{})
	assert.True(t, isErr)
	assert.Equal(t, "symbol is required", out)

	out, isErr = callTool(t, makeSearchHandler(svc), map[string]any{"query": "return"})
	assert.True(t, isErr)
	assert.Contains(t, out, "full-text search")

	out, isErr = callTool(t, makeCallsHandler(svc, true), map[string]any{"symbol": "Foo", "depth": 1})
	assert.False(t, isErr)
	assert.Contains(t, out, "Foo -> Bar")

	out, isErr = callTool(t, makeCallsBetweenHandler(svc), map[string]any{"source": "Foo", "target": "Bar"})
	assert.False(t, isErr)
	assert.Contains(t, out, "Foo -> Bar")

	out, isErr = callTool(t, makeGetFileHandler(svc), map[string]any{"path": "dom/missing.cpp"})
	assert.True(t, isErr)
	assert.Equal(t, "dom/missing.cpp: file not found", out)
}
