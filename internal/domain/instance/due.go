package instance

import (
	"cmp"
	"slices"

	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/obligation"
)

// ObligationsToComplete returns the instances still outstanding in a week.
//
// Counts come from the instances materialized for the week, never from the
// live template, so a template edited mid-week leaves that week unchanged.
// For a Daily template every incomplete instance is due: one was generated
// per configured weekday. For a Weekly template the instances of a
// (user, template) pair are interchangeable: the materialized count minus
// the completed count remain, and the incomplete instances with the lowest
// IDs represent them. Inactive contracts have nothing due.
//
// The result is ordered by user, due time, template and ID.
func ObligationsToComplete(c contract.Contract, templates []obligation.Template, weekInstances []Instance) []Instance {
	if !c.IsActive || c.IsDeleted() {
		return nil
	}

	type groupKey struct{ userID, templateID string }
	groups := make(map[groupKey][]Instance)
	var order []groupKey
	for _, inst := range weekInstances {
		if inst.ContractID != c.ID {
			continue
		}
		k := groupKey{inst.UserID, inst.TemplateID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], inst)
	}

	byID := obligation.Index(templates)
	var due []Instance
	for _, k := range order {
		group := groups[k]
		if tmpl, ok := byID[k.templateID]; ok {
			if _, weekly := tmpl.Recurrence.(obligation.Weekly); weekly {
				due = append(due, weeklyRemaining(group)...)
				continue
			}
		}
		due = append(due, incomplete(group)...)
	}

	slices.SortFunc(due, compareDue)
	return due
}

// weeklyRemaining picks the open instances standing for the completions the
// week still needs. The target is the set's size at generation time.
func weeklyRemaining(group []Instance) []Instance {
	open := incomplete(group)
	completed := len(group) - len(open)
	remaining := len(group) - completed
	if remaining <= 0 {
		return nil
	}
	slices.SortFunc(open, func(a, b Instance) int { return cmp.Compare(a.ID, b.ID) })
	return open[:remaining]
}

func incomplete(group []Instance) []Instance {
	var out []Instance
	for _, inst := range group {
		if !inst.IsCompleted() {
			out = append(out, inst)
		}
	}
	return out
}

func compareDue(a, b Instance) int {
	return cmp.Or(
		cmp.Compare(a.UserID, b.UserID),
		a.DueAt.Compare(b.DueAt),
		cmp.Compare(a.TemplateID, b.TemplateID),
		cmp.Compare(a.ID, b.ID),
	)
}

// GroupByUser splits due instances per participant, in contract order.
// Participants with nothing due get an empty list.
func GroupByUser(c contract.Contract, due []Instance) []UserDue {
	out := make([]UserDue, 0, len(c.ParticipantIDs))
	for _, userID := range c.ParticipantIDs {
		ud := UserDue{UserID: userID, Instances: []Instance{}}
		for _, inst := range due {
			if inst.UserID == userID {
				ud.Instances = append(ud.Instances, inst)
			}
		}
		out = append(out, ud)
	}
	return out
}
