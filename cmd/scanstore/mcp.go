package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/scanstore/scanstore/counttable"
	"github.com/arthur-debert/scanstore/scanstore/export"
	"github.com/arthur-debert/scanstore/scanstore/store"
	"github.com/arthur-debert/scanstore/types"
)

const serverVersion = "0.1.0"

func (cli *CLI) addMCPCommand() {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the store's tags, values and count tables over MCP",
		Long: `Run a Model Context Protocol server over stdin/stdout, or over streamable
HTTP with --http.

Tools: tags, values, count, filter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			server := newMCPServer(st, cli.logger)

			if addr, _ := cmd.Flags().GetString("http"); addr != "" {
				handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
					return server
				}, nil)
				cli.logger.Info("MCP handler listening", "addr", addr)
				return http.ListenAndServe(addr, handler)
			}
			var t mcp.Transport = &mcp.StdioTransport{}
			if cli.viperInst.GetBool("log-queries") {
				t = &mcp.LoggingTransport{Transport: t, Writer: os.Stderr}
			}
			return server.Run(cmd.Context(), t)
		},
	}
	mcpCmd.Flags().String("http", "", "Listen address for streamable HTTP (default: stdio)")
	cli.rootCmd.AddCommand(mcpCmd)
}

type mcpTools struct {
	st     store.Store
	logger *slog.Logger
}

func newMCPServer(st store.Store, logger *slog.Logger) *mcp.Server {
	tools := &mcpTools{st: st, logger: logger}
	server := mcp.NewServer(&mcp.Implementation{Name: "scanstore", Version: serverVersion}, &mcp.ServerOptions{
		Instructions: "Inspect imaging scans by tag: list tags, list a tag's values, " +
			"count scans per tag value combination and filter scans by expression.",
	})

	mcp.AddTool(server, &mcp.Tool{Name: "tags", Description: "List the tag schema"}, tools.tags)
	mcp.AddTool(server, &mcp.Tool{Name: "values", Description: "List the distinct values of one tag across the current scans"}, tools.values)
	mcp.AddTool(server, &mcp.Tool{Name: "count", Description: "Build a count table: rows are all value combinations of every tag but the last, columns are the last tag's values, cells count matching scans"}, tools.count)
	mcp.AddTool(server, &mcp.Tool{Name: "filter", Description: `Return the paths of scans matching a filter expression such as (({PatientName} == "P1") AND ({TimePoint} == "T1"))`}, tools.filter)
	return server
}

type tagsResult struct {
	Tags []tagDoc `json:"tags"`
}

type tagsArgs struct{}

func (m *mcpTools) tags(ctx context.Context, req *mcp.CallToolRequest, _ tagsArgs) (*mcp.CallToolResult, *tagsResult, error) {
	return nil, &tagsResult{Tags: tagListing(m.st.Tags()).doc.([]tagDoc)}, nil
}

type valuesArgs struct {
	Tag string `json:"tag" jsonschema:"the tag name"`
}

type valuesResult struct {
	Tag    string   `json:"tag"`
	Type   string   `json:"field_type"`
	Values []string `json:"values"`
}

func (m *mcpTools) values(ctx context.Context, req *mcp.CallToolRequest, args valuesArgs) (*mcp.CallToolResult, *valuesResult, error) {
	vs, err := counttable.NewEnumerator(m.st).Values(args.Tag)
	if err != nil {
		return nil, nil, err
	}
	res := &valuesResult{Tag: vs.Tag.Name, Type: vs.Tag.Type.String(), Values: make([]string, vs.Len())}
	for i := range vs.Values {
		res.Values[i] = vs.Text(i)
	}
	return nil, res, nil
}

type countArgs struct {
	Tags  []string `json:"tags" jsonschema:"two or more tag names; the last one forms the columns"`
	Batch bool     `json:"batch,omitempty" jsonschema:"query once per row instead of once per cell"`
}

func (m *mcpTools) count(ctx context.Context, req *mcp.CallToolRequest, args countArgs) (*mcp.CallToolResult, *export.Document, error) {
	opts := []counttable.Option{counttable.WithLogger(m.logger)}
	if args.Batch {
		opts = append(opts, counttable.WithRowBatching())
	}
	grid, err := counttable.NewBuilder(m.st, opts...).Build(ctx, args.Tags)
	if err != nil {
		return nil, nil, err
	}
	doc, err := export.NewDocument(grid)
	if err != nil {
		return nil, nil, err
	}
	return nil, doc, nil
}

type filterArgs struct {
	Expression string `json:"expression" jsonschema:"the filter expression"`
	Initial    bool   `json:"initial,omitempty" jsonschema:"filter the values recorded at import time"`
}

type filterResult struct {
	Paths []string `json:"paths"`
}

func (m *mcpTools) filter(ctx context.Context, req *mcp.CallToolRequest, args filterArgs) (*mcp.CallToolResult, *filterResult, error) {
	collection := types.CollectionCurrent
	if args.Initial {
		collection = types.CollectionInitial
	}
	scans, err := m.st.FilterDocuments(collection, args.Expression)
	if err != nil {
		return nil, nil, err
	}
	res := &filterResult{Paths: make([]string, len(scans))}
	for i, s := range scans {
		res.Paths[i] = s.Path
	}
	return nil, res, nil
}
