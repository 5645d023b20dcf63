package functional_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/testserver"
	"github.com/rpggio/accord/internal/transport"
	"github.com/stretchr/testify/require"
)

// Tuesday of the week starting Sunday 2024-03-10.
var tuesday = time.Date(2024, time.March, 12, 9, 30, 0, 0, time.UTC)

type idResult struct {
	ID string `json:"id"`
}

type reportLine struct {
	Obligation struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"obligation"`
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	Report struct {
		TimesCompleted int `json:"timesCompleted"`
		TimesMissed    int `json:"timesMissed"`
		TimesLate      int `json:"timesLate"`
		Total          int `json:"total"`
	} `json:"report"`
}

type weekResult struct {
	Week      string              `json:"week"`
	Instances []instance.Instance `json:"instances"`
}

func newServer(t *testing.T) *testserver.TestServer {
	t.Helper()
	ts := testserver.New(t, tuesday)
	ts.AddUser(t, "alice", "Alice", "alice-token")
	ts.AddUser(t, "bob", "Bob", "bob-token")
	ts.AddUser(t, "carol", "Carol", "carol-token")
	return ts
}

func requireDomainError(t *testing.T, resp transport.Response, code string) {
	t.Helper()
	require.NotNil(t, resp.Error)
	require.Equal(t, transport.ErrDomain, resp.Error.Code)
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, code, data["code"])
}

func findInstance(t *testing.T, instances []instance.Instance, userID, templateID string, occurrence int) instance.Instance {
	t.Helper()
	for _, inst := range instances {
		if inst.UserID == userID && inst.TemplateID == templateID && inst.Occurrence == occurrence {
			return inst
		}
	}
	t.Fatalf("no instance for %s/%s/%d", userID, templateID, occurrence)
	return instance.Instance{}
}

func TestRPC_WeekLifecycle(t *testing.T) {
	ts := newServer(t)

	var daily, weekly idResult
	testserver.Decode(t, ts.RPC(t, "alice-token", "create_template", map[string]any{
		"title":      "Walk",
		"recurrence": map[string]any{"kind": "daily", "weekdays": []string{"sunday", "saturday"}},
	}), &daily)
	testserver.Decode(t, ts.RPC(t, "bob-token", "create_template", map[string]any{
		"title":      "Budget review",
		"recurrence": map[string]any{"kind": "weekly", "times_per_week": 1},
	}), &weekly)

	var c idResult
	testserver.Decode(t, ts.RPC(t, "alice-token", "create_contract", map[string]any{
		"title":                   "Household",
		"participant_ids":         []string{"bob"},
		"obligation_template_ids": []string{daily.ID, weekly.ID},
		"activate":                true,
	}), &c)

	var week weekResult
	testserver.Decode(t, ts.RPC(t, "bob-token", "list_week", map[string]any{"contract_id": c.ID}), &week)
	require.Equal(t, "2024-03-10", week.Week)
	require.Len(t, week.Instances, 6)

	saturday := findInstance(t, week.Instances, "alice", daily.ID, int(time.Saturday))
	review := findInstance(t, week.Instances, "bob", weekly.ID, 0)

	// Alice finishes on time on Saturday evening.
	ts.Clock.Set(time.Date(2024, time.March, 16, 20, 0, 0, 0, time.UTC))
	var done instance.Instance
	testserver.Decode(t, ts.RPC(t, "alice-token", "set_completion", map[string]any{"instance_id": saturday.ID}), &done)
	require.NotNil(t, done.CompletedAt)
	require.False(t, done.IsLate())

	requireDomainError(t, ts.RPC(t, "alice-token", "set_completion", map[string]any{"instance_id": review.ID}), "NOT_OWNER")

	// Bob completes last week's review early Sunday morning.
	ts.Clock.Set(time.Date(2024, time.March, 17, 1, 0, 0, 0, time.UTC))
	testserver.Decode(t, ts.RPC(t, "bob-token", "set_completion", map[string]any{"instance_id": review.ID}), &done)
	require.True(t, done.IsLate())

	var unviewed []instance.Instance
	testserver.Decode(t, ts.RPC(t, "alice-token", "unviewed_completions", map[string]any{"contract_id": c.ID}), &unviewed)
	require.Len(t, unviewed, 1)
	require.Equal(t, review.ID, unviewed[0].ID)

	var marked struct {
		Marked int `json:"marked"`
	}
	testserver.Decode(t, ts.RPC(t, "alice-token", "mark_viewed", map[string]any{"instance_ids": []string{review.ID}}), &marked)
	require.Equal(t, 1, marked.Marked)

	ts.Clock.Set(time.Date(2024, time.March, 19, 8, 0, 0, 0, time.UTC))

	var lines []reportLine
	resp := ts.RPC(t, "bob-token", "status_report", map[string]any{"contract_id": c.ID})
	var rep struct {
		Reports []reportLine `json:"reports"`
	}
	testserver.Decode(t, resp, &rep)
	lines = rep.Reports
	require.Len(t, lines, 4)

	type counts struct{ total, completed, missed, late int }
	got := make(map[string]counts)
	for _, l := range lines {
		got[l.Obligation.Title+"/"+l.User.DisplayName] = counts{l.Report.Total, l.Report.TimesCompleted, l.Report.TimesMissed, l.Report.TimesLate}
	}
	require.Equal(t, map[string]counts{
		"Walk/Alice":          {2, 1, 1, 0},
		"Walk/Bob":            {2, 0, 2, 0},
		"Budget review/Alice": {1, 0, 1, 0},
		"Budget review/Bob":   {1, 1, 0, 1},
	}, got)
	require.Equal(t, "Walk", lines[0].Obligation.Title)
	require.Equal(t, "alice", lines[0].User.ID)

	var due instance.DueSet
	testserver.Decode(t, ts.RPC(t, "alice-token", "obligations_to_complete", map[string]any{"contract_id": c.ID}), &due)
	require.Equal(t, "2024-03-17", due.WeekStart.Format("2006-01-02"))
	require.Len(t, due.Users, 2)
	require.Len(t, due.Users[0].Instances, 3)
}

func TestRPC_AccessControl(t *testing.T) {
	ts := newServer(t)

	var tmpl, c idResult
	testserver.Decode(t, ts.RPC(t, "alice-token", "create_template", map[string]any{
		"title":      "Stretch",
		"recurrence": map[string]any{"kind": "weekly", "times_per_week": 2},
	}), &tmpl)
	testserver.Decode(t, ts.RPC(t, "alice-token", "create_contract", map[string]any{
		"title":                   "Private",
		"participant_ids":         []string{"bob"},
		"obligation_template_ids": []string{tmpl.ID},
	}), &c)

	requireDomainError(t, ts.RPC(t, "carol-token", "get_contract", map[string]any{"contract_id": c.ID}), "ACCESS_DENIED")
	requireDomainError(t, ts.RPC(t, "carol-token", "recent_activity", map[string]any{"contract_id": c.ID}), "ACCESS_DENIED")
	requireDomainError(t, ts.RPC(t, "bob-token", "update_template", map[string]any{"id": tmpl.ID, "title": "Mine now"}), "NOT_OWNER")

	resp := ts.RPC(t, "alice-token", "create_template", map[string]any{
		"title":      "Too much",
		"recurrence": map[string]any{"kind": "weekly", "times_per_week": 8},
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, transport.ErrInvalidParams, resp.Error.Code)

	resp = ts.RPC(t, "alice-token", "no_such_method", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, transport.ErrMethodNotFound, resp.Error.Code)
}

func TestRPC_JoinAndActivate(t *testing.T) {
	ts := newServer(t)

	var tmpl, c idResult
	testserver.Decode(t, ts.RPC(t, "alice-token", "create_template", map[string]any{
		"title":      "Journal",
		"recurrence": map[string]any{"kind": "daily", "weekdays": []string{"mon", "wed", "fri"}},
	}), &tmpl)
	testserver.Decode(t, ts.RPC(t, "alice-token", "create_contract", map[string]any{
		"title":                   "Writing",
		"obligation_template_ids": []string{tmpl.ID},
	}), &c)

	requireDomainError(t, ts.RPC(t, "alice-token", "activate_contract", map[string]any{"contract_id": c.ID}), "SOLO_NOT_ALLOWED")

	var joined struct {
		ParticipantIDs []string `json:"participant_ids"`
	}
	testserver.Decode(t, ts.RPC(t, "bob-token", "join_contract", map[string]any{"contract_id": c.ID}), &joined)
	require.Equal(t, []string{"alice", "bob"}, joined.ParticipantIDs)

	var active struct {
		IsActive bool `json:"is_active"`
	}
	testserver.Decode(t, ts.RPC(t, "alice-token", "activate_contract", map[string]any{"contract_id": c.ID}), &active)
	require.True(t, active.IsActive)

	var week weekResult
	testserver.Decode(t, ts.RPC(t, "bob-token", "list_week", map[string]any{"contract_id": c.ID, "week": "2024-03-14"}), &week)
	require.Len(t, week.Instances, 6)

	var entries []struct {
		Type string `json:"type"`
	}
	testserver.Decode(t, ts.RPC(t, "alice-token", "recent_activity", map[string]any{"contract_id": c.ID}), &entries)
	types := make([]string, 0, len(entries))
	for _, e := range entries {
		types = append(types, e.Type)
	}
	require.Contains(t, types, "participant_joined")
	require.Contains(t, types, "contract_activated")
	require.Contains(t, types, "instances_generated")
}

func TestRPC_RejectsUnknownToken(t *testing.T) {
	ts := newServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc",
		strings.NewReader(`{"jsonrpc":"2.0","method":"list_contracts","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer nope")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
