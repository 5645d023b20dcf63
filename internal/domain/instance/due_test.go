package instance_test

import (
	"testing"
	"time"

	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/stretchr/testify/require"
)

func complete(insts []instance.Instance, idx int, at time.Time) {
	insts[idx].CompletedAt = &at
}

func TestObligationsToComplete_Daily(t *testing.T) {
	templates := []obligation.Template{dailyTemplate("gym", time.Monday, time.Wednesday, time.Friday)}
	c := activeContract([]string{"gym"}, "alice")
	week, err := instance.GenerateWeekInstances(c, templates, weekStart)
	require.NoError(t, err)

	require.Len(t, instance.ObligationsToComplete(c, templates, week), 3)

	complete(week, 0, endOfDay(13).Add(-time.Hour))
	due := instance.ObligationsToComplete(c, templates, week)
	require.Len(t, due, 2)
	require.Equal(t, time.Wednesday, due[0].DueAt.Weekday())
	require.Equal(t, time.Friday, due[1].DueAt.Weekday())
}

func TestObligationsToComplete_Weekly(t *testing.T) {
	templates := []obligation.Template{weeklyTemplate("run", 4)}
	c := activeContract([]string{"run"}, "alice")
	week, err := instance.GenerateWeekInstances(c, templates, weekStart)
	require.NoError(t, err)

	require.Len(t, instance.ObligationsToComplete(c, templates, week), 4)

	complete(week, 2, endOfDay(14))
	due := instance.ObligationsToComplete(c, templates, week)
	require.Len(t, due, 3)
	for i := 1; i < len(due); i++ {
		require.Less(t, due[i-1].ID, due[i].ID)
	}
	for _, inst := range due {
		require.NotEqual(t, week[2].ID, inst.ID)
	}

	for i := range week {
		complete(week, i, endOfDay(15))
	}
	require.Empty(t, instance.ObligationsToComplete(c, templates, week))
}

func TestObligationsToComplete_IgnoresTemplateEdits(t *testing.T) {
	generated := []obligation.Template{weeklyTemplate("run", 4), dailyTemplate("gym", time.Monday, time.Wednesday)}
	c := activeContract([]string{"run", "gym"}, "alice")
	week, err := instance.GenerateWeekInstances(c, generated, weekStart)
	require.NoError(t, err)
	require.Len(t, week, 6)
	complete(week, 0, endOfDay(14))

	before := instance.ObligationsToComplete(c, generated, week)
	require.Len(t, before, 5)

	lowered := []obligation.Template{weeklyTemplate("run", 1), dailyTemplate("gym", time.Monday)}
	require.Equal(t, before, instance.ObligationsToComplete(c, lowered, week))

	raised := []obligation.Template{weeklyTemplate("run", 7), dailyTemplate("gym", time.Monday, time.Wednesday, time.Friday)}
	require.Equal(t, before, instance.ObligationsToComplete(c, raised, week))
}

func TestObligationsToComplete_InactiveContract(t *testing.T) {
	templates := []obligation.Template{weeklyTemplate("run", 2)}
	c := activeContract([]string{"run"}, "alice")
	week, err := instance.GenerateWeekInstances(c, templates, weekStart)
	require.NoError(t, err)

	c.IsActive = false
	require.Empty(t, instance.ObligationsToComplete(c, templates, week))
}

func TestObligationsToComplete_GroupsByUser(t *testing.T) {
	templates := []obligation.Template{dailyTemplate("gym", time.Sunday), weeklyTemplate("run", 1)}
	c := activeContract([]string{"gym", "run"}, "bob", "alice")
	week, err := instance.GenerateWeekInstances(c, templates, weekStart)
	require.NoError(t, err)

	for i, inst := range week {
		if inst.UserID == "bob" {
			complete(week, i, endOfDay(12))
		}
	}

	due := instance.ObligationsToComplete(c, templates, week)
	require.Len(t, due, 2)
	require.Equal(t, "gym", due[0].TemplateID)

	grouped := instance.GroupByUser(c, due)
	require.Len(t, grouped, 2)
	require.Equal(t, "bob", grouped[0].UserID)
	require.Empty(t, grouped[0].Instances)
	require.Equal(t, "alice", grouped[1].UserID)
	require.Len(t, grouped[1].Instances, 2)
}
