package instance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/stretchr/testify/require"
)

// Sunday 2024-05-12.
var weekStart = time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC)

func endOfDay(day int) time.Time {
	return time.Date(2024, time.May, day, 23, 59, 59, 999_000_000, time.UTC)
}

func dailyTemplate(id string, days ...time.Weekday) obligation.Template {
	return obligation.Template{ID: id, OwnerID: "alice", Title: id, Recurrence: obligation.Daily{Weekdays: days}}
}

func weeklyTemplate(id string, n int) obligation.Template {
	return obligation.Template{ID: id, OwnerID: "alice", Title: id, Recurrence: obligation.Weekly{TimesPerWeek: n}}
}

func activeContract(templateIDs []string, participants ...string) contract.Contract {
	return contract.Contract{
		ID:             "c1",
		Title:          "Training",
		ParticipantIDs: participants,
		TemplateIDs:    templateIDs,
		IsActive:       true,
	}
}

func TestGenerateWeekInstances_Daily(t *testing.T) {
	tmpl := dailyTemplate("gym", time.Friday, time.Monday, time.Wednesday)
	c := activeContract([]string{"gym"}, "alice")

	got, err := instance.GenerateWeekInstances(c, []obligation.Template{tmpl}, weekStart)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, endOfDay(13), got[0].DueAt)
	require.Equal(t, endOfDay(15), got[1].DueAt)
	require.Equal(t, endOfDay(17), got[2].DueAt)
	for _, inst := range got {
		require.Equal(t, "alice", inst.UserID)
		require.Equal(t, weekStart, inst.WeekStart)
		require.Equal(t, int(inst.DueAt.Weekday()), inst.Occurrence)
		require.Nil(t, inst.CompletedAt)
		require.NotEmpty(t, inst.ID)
	}
}

func TestGenerateWeekInstances_Weekly(t *testing.T) {
	tmpl := weeklyTemplate("run", 4)
	c := activeContract([]string{"run"}, "alice")

	got, err := instance.GenerateWeekInstances(c, []obligation.Template{tmpl}, weekStart)
	require.NoError(t, err)
	require.Len(t, got, 4)

	ids := map[string]bool{}
	for i, inst := range got {
		require.Equal(t, endOfDay(18), inst.DueAt)
		require.Equal(t, i, inst.Occurrence)
		ids[inst.ID] = true
	}
	require.Len(t, ids, 4)
}

func TestGenerateWeekInstances_PerParticipant(t *testing.T) {
	templates := []obligation.Template{dailyTemplate("gym", time.Monday), weeklyTemplate("run", 2)}
	c := activeContract([]string{"gym", "run"}, "alice", "bob")

	got, err := instance.GenerateWeekInstances(c, templates, weekStart)
	require.NoError(t, err)
	require.Len(t, got, 6)

	perUser := map[string]int{}
	for _, inst := range got {
		perUser[inst.UserID]++
	}
	require.Equal(t, map[string]int{"alice": 3, "bob": 3}, perUser)
}

func TestGenerateWeekInstances_Idempotent(t *testing.T) {
	templates := []obligation.Template{dailyTemplate("gym", time.Monday, time.Thursday), weeklyTemplate("run", 3)}
	c := activeContract([]string{"gym", "run"}, "alice", "bob")

	first, err := instance.GenerateWeekInstances(c, templates, weekStart)
	require.NoError(t, err)
	second, err := instance.GenerateWeekInstances(c, templates, weekStart.Add(50*time.Hour))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGenerateWeekInstances_InactiveContract(t *testing.T) {
	c := activeContract([]string{"gym"}, "alice")
	c.IsActive = false

	got, err := instance.GenerateWeekInstances(c, []obligation.Template{dailyTemplate("gym", time.Monday)}, weekStart)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGenerateWeekInstances_AfterDueDate(t *testing.T) {
	due := weekStart.AddDate(0, 0, -1)
	c := activeContract([]string{"gym"}, "alice")
	c.DueDate = &due

	got, err := instance.GenerateWeekInstances(c, []obligation.Template{dailyTemplate("gym", time.Monday)}, weekStart)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGenerateWeekInstances_InvalidTemplateIsolated(t *testing.T) {
	templates := []obligation.Template{
		weeklyTemplate("broken", 0),
		dailyTemplate("gym", time.Tuesday),
		dailyTemplate("empty"),
	}
	c := activeContract([]string{"broken", "gym", "empty"}, "alice")

	got, err := instance.GenerateWeekInstances(c, templates, weekStart)
	require.ErrorIs(t, err, obligation.ErrInvalidRecurrence)
	require.Len(t, got, 1)
	require.Equal(t, "gym", got[0].TemplateID)

	var te *instance.TemplateError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "broken", te.TemplateID)
	require.Contains(t, err.Error(), "empty")
}

func TestGenerateWeekInstances_SkipsDeletedAndUnknownTemplates(t *testing.T) {
	deleted := dailyTemplate("old", time.Monday)
	now := weekStart
	deleted.DeletedAt = &now
	c := activeContract([]string{"old", "missing", "run"}, "alice")

	got, err := instance.GenerateWeekInstances(c, []obligation.Template{deleted, weeklyTemplate("run", 1)}, weekStart)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "run", got[0].TemplateID)
}

func TestWithoutMaterialized(t *testing.T) {
	c := activeContract([]string{"run"}, "alice", "bob")
	old, err := instance.GenerateWeekInstances(c, []obligation.Template{weeklyTemplate("run", 2)}, weekStart)
	require.NoError(t, err)
	var existing []instance.Instance
	for _, inst := range old {
		if inst.UserID == "alice" {
			existing = append(existing, inst)
		}
	}

	edited, err := instance.GenerateWeekInstances(c, []obligation.Template{weeklyTemplate("run", 4)}, weekStart)
	require.NoError(t, err)

	pending := instance.WithoutMaterialized(edited, existing)
	require.Len(t, pending, 4)
	for _, inst := range pending {
		require.Equal(t, "bob", inst.UserID)
	}

	nextWeek, err := instance.GenerateWeekInstances(c, []obligation.Template{weeklyTemplate("run", 4)}, weekStart.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, instance.WithoutMaterialized(nextWeek, existing), 8)
}

func TestIDFor_UsesWeekStartInstant(t *testing.T) {
	key := instance.Key{ContractID: "c1", TemplateID: "run", UserID: "alice", WeekStart: weekStart}

	sameInstant := key
	sameInstant.WeekStart = weekStart.In(time.FixedZone("UTC+2", 2*60*60))
	require.Equal(t, instance.IDFor(key), instance.IDFor(sameInstant))

	sameDateOtherZone := key
	sameDateOtherZone.WeekStart = time.Date(2024, time.May, 12, 0, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60))
	require.NotEqual(t, instance.IDFor(key), instance.IDFor(sameDateOtherZone))
}

func TestIsLate(t *testing.T) {
	inst := instance.Instance{DueAt: endOfDay(13)}
	require.False(t, inst.IsLate())

	onTime := endOfDay(13).Add(-time.Hour)
	inst.CompletedAt = &onTime
	require.False(t, inst.IsLate())

	late := endOfDay(13).Add(time.Minute)
	inst.CompletedAt = &late
	require.True(t, inst.IsLate())
}
