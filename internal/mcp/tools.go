package mcp

import (
	"context"
	"encoding/json"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes every handler method as an MCP tool.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Templates
	addTool[CreateTemplateParams](server, h, "create_template",
		"Create a recurring obligation template owned by the caller. Recurrence is daily on chosen weekdays or weekly N times.")
	addTool[UpdateTemplateParams](server, h, "update_template",
		"Change a template's title, icon or recurrence. Weeks already generated, including the current one, are unchanged.")
	addTool[IDParams](server, h, "delete_template",
		"Soft delete a template. Reports of past weeks still resolve it.")
	addTool[IDParams](server, h, "get_template",
		"Get one obligation template by ID")
	addTool[EmptyParams](server, h, "list_templates",
		"List the caller's obligation templates")

	// Contracts
	addTool[CreateContractParams](server, h, "create_contract",
		"Create a contract binding participants to templates. The caller is always a participant.")
	addTool[ContractParams](server, h, "get_contract",
		"Get a contract the caller takes part in")
	addTool[EmptyParams](server, h, "list_contracts",
		"List the caller's contracts")
	addTool[ContractParams](server, h, "activate_contract",
		"Activate a contract and generate the current week's obligations")
	addTool[ContractParams](server, h, "deactivate_contract",
		"Stop generating obligations for a contract")
	addTool[ContractParams](server, h, "join_contract",
		"Join a contract as a participant; the current week is backfilled")
	addTool[ContractParams](server, h, "delete_contract",
		"Delete a contract. Obligations from the current week on are discarded; past weeks stay reportable.")

	// Ledger
	addTool[WeekParams](server, h, "generate_week",
		"Materialize a contract week. Safe to repeat: existing instances are kept.")
	addTool[WeekParams](server, h, "list_week",
		"List every obligation instance of a contract week")
	addTool[ContractParams](server, h, "obligations_to_complete",
		"Outstanding obligations of the current week, grouped by participant")
	addTool[SetCompletionParams](server, h, "set_completion",
		"Mark one of the caller's obligation instances completed or not completed")
	addTool[MarkViewedParams](server, h, "mark_viewed",
		"Record that the caller has seen completed obligations")
	addTool[ContractParams](server, h, "unviewed_completions",
		"Completions by other participants nobody has viewed yet")

	// Reporting
	addTool[StatusReportParams](server, h, "status_report",
		"Completed, missed and late counts per participant and obligation for one week")
	addTool[RecentActivityParams](server, h, "recent_activity",
		"Recent events of a contract, newest first")
}

// addTool registers a typed tool that forwards its arguments to the handler.
func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		params, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		result, err := h.Handle(ctx, getUserID(ctx), name, params)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(result)
	})
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	payload := &APIError{Code: "INTERNAL", Message: err.Error()}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		payload = apiErr
	}
	data, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
