package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
)

func (s *Server) handleListMonitors(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	var data ipc.MonitorsData
	return s.queryResult(ctx, "query monitors", &data)
}

func (s *Server) handleListWorkspaces(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	var data ipc.WorkspacesData
	return s.queryResult(ctx, "query workspaces", &data)
}

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	var data ipc.WindowsData
	return s.queryResult(ctx, "query windows", &data)
}

func (s *Server) handleGetFocused(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	var data ipc.FocusedData
	return s.queryResult(ctx, "query focused", &data)
}

func (s *Server) handleGetTilingDirection(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	var data ipc.TilingDirectionData
	return s.queryResult(ctx, "query tiling-direction", &data)
}

func (s *Server) handleRunCommand(ctx context.Context, _ *mcpsdk.CallToolRequest, args RunCommandInput) (*mcpsdk.CallToolResult, RunCommandOutput, error) {
	command := strings.TrimSpace(args.Command)
	if command == "" {
		return nil, RunCommandOutput{}, fmt.Errorf("command is required")
	}
	message := "command " + command
	if args.SubjectID != "" {
		id, err := uuid.Parse(args.SubjectID)
		if err != nil {
			return nil, RunCommandOutput{}, fmt.Errorf("invalid subject_id %q: %w", args.SubjectID, err)
		}
		message = fmt.Sprintf("command --id %s %s", id, command)
	}

	var data ipc.CommandData
	if err := s.call(ctx, message, &data); err != nil {
		s.logger.Warn("mcp command failed", "command", command, "error", err)
		return nil, RunCommandOutput{}, err
	}
	s.logger.Info("mcp command", "command", command, "subject", data.SubjectContainerID)

	out := RunCommandOutput{SubjectContainerID: data.SubjectContainerID.String()}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("Ran %q on %s", command, out.SubjectContainerID)},
		},
	}, out, nil
}

// queryResult runs a query and renders its data as indented JSON text.
// Container trees carry enums and UUIDs that marshal as strings, so they
// are returned as text rather than structured output.
func (s *Server) queryResult(ctx context.Context, message string, out any) (*mcpsdk.CallToolResult, any, error) {
	if err := s.call(ctx, message, out); err != nil {
		return nil, nil, err
	}
	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s: %w", message, err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(text)},
		},
	}, nil, nil
}

func (s *Server) call(ctx context.Context, message string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := ipc.Dial(ctx, s.addr)
	if err != nil {
		return fmt.Errorf("connect to tilewm at %s: %w", s.addr, err)
	}
	defer client.Close()
	return client.Call(ctx, message, out)
}
