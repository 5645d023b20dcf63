package instance

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/obligation"
)

// namespace seeds deterministic instance IDs.
var namespace = uuid.MustParse("6f1c2a8e-4b7d-4e0a-9c55-3d2f8a1b7e64")

// IDFor derives the instance ID from its key, so regenerating a week yields
// the same IDs.
func IDFor(k Key) string {
	return uuid.NewSHA1(namespace, []byte(k.String())).String()
}

// WithoutMaterialized drops the candidates whose (contract, template, user,
// week) set already has instances in existing. A set is generated once;
// later template edits never top it up or trim it.
func WithoutMaterialized(candidates, existing []Instance) []Instance {
	type setKey struct {
		contractID, templateID, userID string
		weekStart                      int64
	}
	keyOf := func(inst Instance) setKey {
		return setKey{inst.ContractID, inst.TemplateID, inst.UserID, inst.WeekStart.UnixMilli()}
	}

	materialized := make(map[setKey]bool, len(existing))
	for _, inst := range existing {
		materialized[keyOf(inst)] = true
	}
	var out []Instance
	for _, inst := range candidates {
		if !materialized[keyOf(inst)] {
			out = append(out, inst)
		}
	}
	return out
}

// GenerateWeekInstances expands every template of c into the instances of
// the week starting at weekStart, for each participant. Inactive contracts
// produce nothing. A template with an invalid recurrence is skipped and
// reported as a *TemplateError wrapping obligation.ErrInvalidRecurrence; the
// remaining templates are still expanded.
func GenerateWeekInstances(c contract.Contract, templates []obligation.Template, weekStart time.Time) ([]Instance, error) {
	weekStart = calendar.StartOfWeek(weekStart)
	if !c.Schedules(weekStart) {
		return nil, nil
	}

	byID := obligation.Index(templates)
	var (
		out  []Instance
		errs []error
	)
	for _, templateID := range c.TemplateIDs {
		tmpl, ok := byID[templateID]
		if !ok || tmpl.IsDeleted() {
			continue
		}
		if err := obligation.ValidateRecurrence(tmpl.Recurrence); err != nil {
			errs = append(errs, &TemplateError{TemplateID: templateID, Err: err})
			continue
		}
		for _, userID := range c.ParticipantIDs {
			out = append(out, expand(c.ID, tmpl, userID, weekStart)...)
		}
	}
	return out, errors.Join(errs...)
}

func expand(contractID string, tmpl obligation.Template, userID string, weekStart time.Time) []Instance {
	newInstance := func(occurrence int, dueAt time.Time) Instance {
		inst := Instance{
			ContractID: contractID,
			TemplateID: tmpl.ID,
			UserID:     userID,
			WeekStart:  weekStart,
			Occurrence: occurrence,
			DueAt:      dueAt,
		}
		inst.ID = IDFor(inst.Key())
		return inst
	}

	switch rec := tmpl.Recurrence.(type) {
	case obligation.Daily:
		out := make([]Instance, 0, len(rec.Weekdays))
		for _, d := range rec.Sorted() {
			out = append(out, newInstance(int(d), calendar.DayOfWeek(weekStart, d)))
		}
		return out
	case obligation.Weekly:
		dueAt := calendar.EndOfWeek(weekStart)
		out := make([]Instance, 0, rec.TimesPerWeek)
		for i := 0; i < rec.TimesPerWeek; i++ {
			out = append(out, newInstance(i, dueAt))
		}
		return out
	default:
		panic(fmt.Sprintf("unvalidated recurrence %T", tmpl.Recurrence))
	}
}
