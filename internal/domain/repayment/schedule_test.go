package repayment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scheduleStart = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func amounts(schedule []ScheduleEntry) []string {
	out := make([]string, 0, len(schedule))
	for _, e := range schedule {
		out = append(out, e.Amount.String())
	}
	return out
}

func statuses(schedule []ScheduleEntry) []EntryStatus {
	out := make([]EntryStatus, 0, len(schedule))
	for _, e := range schedule {
		out = append(out, e.Status)
	}
	return out
}

func TestGenerateRepaymentSchedule(t *testing.T) {
	t.Run("splits evenly with remainder in the last entry", func(t *testing.T) {
		schedule := GenerateRepaymentSchedule(decimal.NewFromInt(1000), 3, scheduleStart)

		require.Len(t, schedule, 3)
		assert.Equal(t, []string{"333.33", "333.33", "333.34"}, amounts(schedule))

		sum := decimal.Zero
		for _, e := range schedule {
			sum = sum.Add(e.Amount)
			assert.Equal(t, EntryPending, e.Status)
		}
		assert.True(t, sum.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("monthly due dates from the start date", func(t *testing.T) {
		schedule := GenerateRepaymentSchedule(decimal.NewFromInt(300), 3, scheduleStart)

		require.Len(t, schedule, 3)
		assert.Equal(t, scheduleStart, schedule[0].DueDate)
		assert.Equal(t, scheduleStart.AddDate(0, 1, 0), schedule[1].DueDate)
		assert.Equal(t, scheduleStart.AddDate(0, 2, 0), schedule[2].DueDate)
	})

	t.Run("single month schedule", func(t *testing.T) {
		schedule := GenerateRepaymentSchedule(decimal.NewFromFloat(1234.56), 1, scheduleStart)
		require.Len(t, schedule, 1)
		assert.Equal(t, "1234.56", schedule[0].Amount.String())
	})

	t.Run("tiny principal over a long term", func(t *testing.T) {
		// Per-month rounding overshoots: eleven entries of 0.01 already
		// exceed the principal, leaving a negative correction at the end.
		schedule := GenerateRepaymentSchedule(decimal.NewFromFloat(0.10), 12, scheduleStart)

		require.Len(t, schedule, 12)
		for i := 0; i < 11; i++ {
			assert.Equal(t, "0.01", schedule[i].Amount.String())
		}
		assert.Equal(t, "-0.01", schedule[11].Amount.String())

		sum := decimal.Zero
		for _, e := range schedule {
			sum = sum.Add(e.Amount)
		}
		assert.True(t, sum.Equal(decimal.NewFromFloat(0.10)))
	})

	t.Run("degenerate inputs yield an empty schedule", func(t *testing.T) {
		assert.Empty(t, GenerateRepaymentSchedule(decimal.NewFromInt(1000), 0, scheduleStart))
		assert.Empty(t, GenerateRepaymentSchedule(decimal.NewFromInt(1000), -3, scheduleStart))
		assert.Empty(t, GenerateRepaymentSchedule(decimal.Zero, 3, scheduleStart))
		assert.Empty(t, GenerateRepaymentSchedule(decimal.NewFromInt(-500), 3, scheduleStart))
	})
}

func TestUpdateRepaymentStatuses(t *testing.T) {
	schedule := GenerateRepaymentSchedule(decimal.NewFromInt(300), 3, scheduleStart)

	t.Run("covers entries in sequence order", func(t *testing.T) {
		result := UpdateRepaymentStatuses(schedule, decimal.NewFromInt(250))

		assert.Equal(t, []EntryStatus{EntryPaid, EntryPaid, EntryPending}, statuses(result.Schedule))
		require.NotNil(t, result.NextDueDate)
		assert.Equal(t, schedule[2].DueDate, *result.NextDueDate)
	})

	t.Run("partial coverage does not mark an entry paid", func(t *testing.T) {
		result := UpdateRepaymentStatuses(schedule, decimal.NewFromInt(150))

		assert.Equal(t, []EntryStatus{EntryPaid, EntryPending, EntryPending}, statuses(result.Schedule))
		require.NotNil(t, result.NextDueDate)
		assert.Equal(t, schedule[1].DueDate, *result.NextDueDate)
	})

	t.Run("tolerance closes a near miss", func(t *testing.T) {
		result := UpdateRepaymentStatuses(schedule, decimal.NewFromFloat(99.99))
		assert.Equal(t, EntryPaid, result.Schedule[0].Status)
	})

	t.Run("fully repaid clears next due date", func(t *testing.T) {
		result := UpdateRepaymentStatuses(schedule, decimal.NewFromInt(300))
		assert.Equal(t, []EntryStatus{EntryPaid, EntryPaid, EntryPaid}, statuses(result.Schedule))
		assert.Nil(t, result.NextDueDate)
	})

	t.Run("nothing repaid leaves all pending", func(t *testing.T) {
		result := UpdateRepaymentStatuses(schedule, decimal.Zero)
		assert.Equal(t, []EntryStatus{EntryPending, EntryPending, EntryPending}, statuses(result.Schedule))
		require.NotNil(t, result.NextDueDate)
		assert.Equal(t, schedule[0].DueDate, *result.NextDueDate)
	})

	t.Run("input schedule is not mutated", func(t *testing.T) {
		before := statuses(schedule)
		_ = UpdateRepaymentStatuses(schedule, decimal.NewFromInt(300))
		assert.Equal(t, before, statuses(schedule))
	})

	t.Run("empty schedule", func(t *testing.T) {
		result := UpdateRepaymentStatuses(nil, decimal.NewFromInt(100))
		assert.Empty(t, result.Schedule)
		assert.Nil(t, result.NextDueDate)
	})
}
