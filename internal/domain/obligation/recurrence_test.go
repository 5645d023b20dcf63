package obligation_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/stretchr/testify/require"
)

func TestValidateRecurrence(t *testing.T) {
	tests := []struct {
		name  string
		rec   obligation.Recurrence
		valid bool
	}{
		{"daily", obligation.Daily{Weekdays: []time.Weekday{time.Monday, time.Friday}}, true},
		{"daily all week", obligation.Daily{Weekdays: []time.Weekday{0, 1, 2, 3, 4, 5, 6}}, true},
		{"daily empty", obligation.Daily{}, false},
		{"daily out of range", obligation.Daily{Weekdays: []time.Weekday{7}}, false},
		{"daily duplicate", obligation.Daily{Weekdays: []time.Weekday{time.Monday, time.Monday}}, false},
		{"weekly", obligation.Weekly{TimesPerWeek: 3}, true},
		{"weekly max", obligation.Weekly{TimesPerWeek: 7}, true},
		{"weekly zero", obligation.Weekly{}, false},
		{"weekly too many", obligation.Weekly{TimesPerWeek: 8}, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := obligation.ValidateRecurrence(tt.rec)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, obligation.ErrInvalidRecurrence)
			}
		})
	}
}

func TestRecurrenceSpec(t *testing.T) {
	rec, err := obligation.RecurrenceSpec{Kind: obligation.KindDaily, Weekdays: []string{"fri", "Monday"}}.Recurrence()
	require.NoError(t, err)
	require.Equal(t, obligation.Daily{Weekdays: []time.Weekday{time.Friday, time.Monday}}, rec)
	require.Equal(t, []string{"monday", "friday"}, obligation.EncodeRecurrence(rec).Weekdays)

	rec, err = obligation.RecurrenceSpec{Kind: obligation.KindWeekly, TimesPerWeek: 2}.Recurrence()
	require.NoError(t, err)
	require.Equal(t, obligation.Weekly{TimesPerWeek: 2}, rec)

	_, err = obligation.RecurrenceSpec{Kind: "monthly"}.Recurrence()
	require.ErrorIs(t, err, obligation.ErrInvalidRecurrence)
	_, err = obligation.RecurrenceSpec{Kind: obligation.KindDaily, Weekdays: []string{"someday"}}.Recurrence()
	require.ErrorIs(t, err, obligation.ErrInvalidRecurrence)
	_, err = obligation.RecurrenceSpec{Kind: obligation.KindWeekly}.Recurrence()
	require.ErrorIs(t, err, obligation.ErrInvalidRecurrence)
}

func TestRestoreRecurrence(t *testing.T) {
	require.Equal(t, obligation.Daily{Weekdays: []time.Weekday{1, 3}}, obligation.RestoreRecurrence(obligation.KindDaily, []int{1, 3}, 0))
	require.Equal(t, obligation.Weekly{TimesPerWeek: 4}, obligation.RestoreRecurrence(obligation.KindWeekly, nil, 4))
	require.Nil(t, obligation.RestoreRecurrence("yearly", nil, 0))
}

func TestTemplateJSON(t *testing.T) {
	tmpl := obligation.Template{
		ID:         "t1",
		OwnerID:    "alice",
		Title:      "Gym",
		Recurrence: obligation.Daily{Weekdays: []time.Weekday{time.Wednesday, time.Monday}},
	}
	raw, err := json.Marshal(tmpl)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, "Gym", out["title"])
	require.Equal(t, map[string]any{
		"kind":     "daily",
		"weekdays": []any{"monday", "wednesday"},
	}, out["recurrence"])
}
