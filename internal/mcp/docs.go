package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `accord tracks recurring obligations shared between people.

Core concepts:
- Obligation template: a commitment owned by one user that repeats daily on chosen weekdays or N times per week.
- Contract: binds two or more participants to a set of templates. Only active contracts produce obligations.
- Instance: one dated obligation for one participant in one week. Weeks run Sunday through Saturday.
- Completion ledger: set_completion records when an instance was done. Completing after the deadline counts as late.

Typical workflow:
1) list_contracts to find the contract, or create_template + create_contract to start one.
2) obligations_to_complete shows what each participant still owes this week.
3) set_completion when something is done; pass completed=false to undo.
4) unviewed_completions + mark_viewed to acknowledge what partners did.
5) status_report (weeks_ago=1) summarizes the last closed week.

Docs:
- accord://docs/index
- accord://docs/recurrence
- accord://docs/reporting
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "accord://docs/index",
		Name:        "docs_index",
		Title:       "accord docs index",
		Description: "Entry point for agent-facing docs.",
		Content: `# accord: Agent Docs Index

## Quick start

1. ` + "`list_contracts`" + ` to see what the user takes part in.
2. ` + "`obligations_to_complete`" + ` for the outstanding work of the current week.
3. ` + "`set_completion`" + ` with an instance ID to record progress.
4. ` + "`status_report`" + ` for completed, missed and late counts of a closed week.

## Docs

- ` + "`accord://docs/recurrence`" + ` explains how templates expand into weekly instances.
- ` + "`accord://docs/reporting`" + ` explains report windows and late completions.

## Limits

- Only the assignee of an instance may complete it.
- Deleted contracts keep past weeks for reporting but generate nothing new.
`,
	},
	{
		URI:         "accord://docs/recurrence",
		Name:        "docs_recurrence",
		Title:       "Recurrence rules",
		Description: "How templates expand into weekly obligation instances.",
		Content: `# Recurrence

Weeks start Sunday 00:00 and end Saturday 23:59:59.999 in the server time zone.

## daily

` + "`{\"kind\": \"daily\", \"weekdays\": [\"monday\", \"wednesday\"]}`" + `

One instance per listed weekday, due at the end of that day.

## weekly

` + "`{\"kind\": \"weekly\", \"times_per_week\": 3}`" + `

N instances per week, all due at the end of Saturday. times_per_week is 1 to 7.

## Generation

Every participant gets one instance per occurrence. Generating the same week
twice never duplicates instances. Weeks after a contract's due date produce
nothing.

A week's instances for one participant and template are generated once.
Editing a template changes later weeks only; the current week keeps its
instances and its due counts.
`,
	},
	{
		URI:         "accord://docs/reporting",
		Name:        "docs_reporting",
		Title:       "Status reports",
		Description: "Report windows and how completions are counted.",
		Content: `# Reporting

` + "`status_report`" + ` covers one whole, closed week. weeks_ago=1 is the last
closed week, 2 the one before; the running week cannot be reported.

Per participant and obligation the report counts:

- total: instances in the week
- timesCompleted: instances with a completion
- timesMissed: total minus completed
- timesLate: completions after the due time

Participants without instances in the window are left out. Instances
generated before a contract was deactivated still count; incomplete ones are
missed.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
