package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/errors"
	"github.com/jllopis/metacrew/pkg/mcp"
	"github.com/jllopis/metacrew/pkg/tools"
)

var (
	toolArgs   string
	toolViaMCP bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List or call the learning tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available tools and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runToolsList,
}

var toolsCallCmd = &cobra.Command{
	Use:   "call NAME",
	Short: "Call one tool with JSON arguments",
	Long: `Call one tool and print its result. Tool failures are part of the
result (status "error"), so the command still succeeds.

Example:
  metacrew tools call state_space_model --args '{"state_dim": 32}'`,
	Args: cobra.ExactArgs(1),
	RunE: runToolsCall,
}

func init() {
	toolsCallCmd.Flags().StringVar(&toolArgs, "args", "{}", "tool arguments as a JSON object")
	toolsCallCmd.Flags().BoolVar(&toolViaMCP, "via-mcp", false, "call through an in-process MCP server")
	toolsCmd.AddCommand(toolsListCmd, toolsCallCmd)
}

type toolInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Params      []tools.Param `json:"params,omitempty"`
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	var infos []toolInfo
	for _, t := range tools.Default().List() {
		info := toolInfo{Name: t.Name(), Description: t.Description()}
		if d, ok := t.(tools.Described); ok {
			info.Params = d.Params()
		}
		infos = append(infos, info)
	}
	if global.JSON {
		printJSON(cmd.OutOrStdout(), infos)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\n", info.Name, info.Description)
		for _, p := range info.Params {
			required := ""
			if p.Required {
				required = " (required)"
			}
			fmt.Fprintf(tw, "  %s\t%s%s\t%s\n", p.Name, p.Type, required, p.Description)
		}
	}
	return tw.Flush()
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var input map[string]any
	if err := json.Unmarshal([]byte(toolArgs), &input); err != nil {
		return NewInvalidArgumentError("--args", err)
	}

	tool, closeFn, err := lookupTool(ctx, args[0], toolViaMCP)
	if err != nil {
		return err
	}
	defer closeFn()

	out, err := tool.Call(ctx, input)
	if err != nil {
		return NewCLIError(errors.New(errors.CodeToolFailure, "tool call failed", err).
			WithContext("tool_name", tool.Name()), "")
	}
	printJSON(cmd.OutOrStdout(), out)
	return nil
}

func lookupTool(ctx context.Context, name string, viaMCP bool) (core.Tool, func(), error) {
	noop := func() {}
	if !viaMCP {
		t, ok := tools.Default().Get(name)
		if !ok {
			return nil, noop, NewNotFoundError("tool", name)
		}
		return t, noop, nil
	}

	srv := mcp.NewServer("metacrew", version, tools.Default())
	client, err := mcp.NewInProcessClient(ctx, srv)
	if err != nil {
		return nil, noop, err
	}
	closeFn := func() { _ = client.Close() }
	remote, err := mcp.RemoteTools(ctx, client)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	for _, t := range remote {
		if t.Name() == name {
			return t, closeFn, nil
		}
	}
	closeFn()
	return nil, noop, NewNotFoundError("tool", name)
}
