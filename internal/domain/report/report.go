// Package report aggregates a closed week of the completion ledger into
// per-user, per-obligation counts.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
)

// Counts are the completion figures of one (user, obligation) pair.
type Counts struct {
	TimesCompleted int `json:"timesCompleted"`
	TimesMissed    int `json:"timesMissed"`
	TimesLate      int `json:"timesLate"`
	Total          int `json:"total"`
}

// UserRef names a participant in a report.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Line is the report of one participant for one obligation.
type Line struct {
	Obligation obligation.Template `json:"obligation"`
	User       UserRef             `json:"user"`
	Report     Counts              `json:"report"`
}

// Window is the closed time range a report covers.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StatusReport is the performance of every participant over one week.
type StatusReport struct {
	Contract contract.Contract `json:"contract"`
	Window   Window            `json:"window"`
	Reports  []Line            `json:"reports"`
}

// Tally folds one instance into the counts.
func (c *Counts) Tally(inst instance.Instance) {
	c.Total++
	if inst.IsCompleted() {
		c.TimesCompleted++
		if inst.IsLate() {
			c.TimesLate++
		}
	}
	c.TimesMissed = c.Total - c.TimesCompleted
}

// BuildReport groups instancesInWindow by (user, template) and counts
// completions, misses and late completions. Lines follow the contract's
// template order, then participant order; pairs without instances are
// omitted. Display names default to user IDs. The window is the week of the
// earliest instance.
func BuildReport(c contract.Contract, templates []obligation.Template, instancesInWindow []instance.Instance) StatusReport {
	type groupKey struct{ templateID, userID string }
	counts := make(map[groupKey]*Counts)
	var keys []groupKey
	var first time.Time
	for _, inst := range instancesInWindow {
		if inst.ContractID != c.ID {
			continue
		}
		if first.IsZero() || inst.WeekStart.Before(first) {
			first = inst.WeekStart
		}
		k := groupKey{inst.TemplateID, inst.UserID}
		if counts[k] == nil {
			counts[k] = &Counts{}
			keys = append(keys, k)
		}
		counts[k].Tally(inst)
	}

	rank := func(list []string, id string) int {
		if i := slices.Index(list, id); i >= 0 {
			return i
		}
		return len(list)
	}
	slices.SortStableFunc(keys, func(a, b groupKey) int {
		return cmp.Or(
			cmp.Compare(rank(c.TemplateIDs, a.templateID), rank(c.TemplateIDs, b.templateID)),
			cmp.Compare(a.templateID, b.templateID),
			cmp.Compare(rank(c.ParticipantIDs, a.userID), rank(c.ParticipantIDs, b.userID)),
			cmp.Compare(a.userID, b.userID),
		)
	})

	byID := obligation.Index(templates)
	lines := make([]Line, 0, len(keys))
	for _, k := range keys {
		tmpl, ok := byID[k.templateID]
		if !ok {
			tmpl = obligation.Template{ID: k.templateID}
		}
		lines = append(lines, Line{
			Obligation: tmpl,
			User:       UserRef{ID: k.userID, DisplayName: k.userID},
			Report:     *counts[k],
		})
	}

	r := StatusReport{Contract: c, Reports: lines}
	if !first.IsZero() {
		r.Window = Window{Start: first, End: calendar.EndOfWeek(first)}
	}
	return r
}

// WithDisplayNames replaces user IDs by display names where known.
func (r *StatusReport) WithDisplayNames(names map[string]string) {
	for i := range r.Reports {
		if name, ok := names[r.Reports[i].User.ID]; ok && name != "" {
			r.Reports[i].User.DisplayName = name
		}
	}
}
