package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func days(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = day(s)
	}
	return out
}

func TestGenerate_ByDaysConsecutiveWeeks(t *testing.T) {
	got := Generate(day("2025-01-06"), Spec{RepeatOption: RepeatCustom, ByDays: []int{1, 3}, IntervalWeeks: 1}, Bound{MaxCount: 4})
	assert.Equal(t, days("2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"), got)
}

func TestGenerate_ByDaysEveryOtherWeek(t *testing.T) {
	got := Generate(day("2025-01-06"), Spec{RepeatOption: RepeatCustom, ByDays: []int{1}, IntervalWeeks: 2}, Bound{MaxCount: 3})
	assert.Equal(t, days("2025-01-06", "2025-01-20", "2025-02-03"), got)
}

func TestGenerate_ByDaysWindowIsRelativeToStart(t *testing.T) {
	// Starting on a Wednesday: the first window is Wed..Tue, so the Monday
	// five days later still belongs to week 0.
	got := Generate(day("2025-01-08"), Spec{ByDays: []int{1, 3}, IntervalWeeks: 2}, Bound{MaxCount: 4})
	assert.Equal(t, days("2025-01-08", "2025-01-13", "2025-01-22", "2025-01-27"), got)
}

func TestGenerate_Every234StepsTwoWeeks(t *testing.T) {
	got := Generate(day("2025-03-03"), Spec{RepeatOption: RepeatEvery234, ByDays: []int{2}}, Bound{MaxCount: 3})
	assert.Equal(t, days("2025-03-03", "2025-03-17", "2025-03-31"), got)
}

func TestGenerate_WeeklyInterval(t *testing.T) {
	got := Generate(day("2025-02-04"), Spec{RepeatOption: RepeatWeekly, IntervalWeeks: 3}, Bound{MaxCount: 3})
	assert.Equal(t, days("2025-02-04", "2025-02-25", "2025-03-18"), got)
}

func TestGenerate_DailyAndMonthly(t *testing.T) {
	assert.Equal(t,
		days("2025-04-29", "2025-04-30", "2025-05-01"),
		Generate(day("2025-04-29"), Spec{RepeatOption: RepeatDaily}, Bound{MaxCount: 3}))
	assert.Equal(t,
		days("2025-01-10", "2025-02-10", "2025-03-10"),
		Generate(day("2025-01-10"), Spec{RepeatOption: RepeatMonthly}, Bound{MaxCount: 3}))
}

func TestGenerate_NoneYieldsStartOnly(t *testing.T) {
	assert.Equal(t, days("2025-05-05"), Generate(day("2025-05-05"), Spec{RepeatOption: RepeatNone}, Bound{}))
}

func TestGenerate_EmptyOptionWithByDaysIsCustom(t *testing.T) {
	spec := Spec{ByDays: []int{1, 3}, IntervalWeeks: 1}
	assert.Equal(t,
		Generate(day("2025-01-06"), Spec{RepeatOption: RepeatCustom, ByDays: []int{1, 3}, IntervalWeeks: 1}, Bound{MaxCount: 4}),
		Generate(day("2025-01-06"), spec, Bound{MaxCount: 4}))
	assert.Equal(t, days("2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"), Generate(day("2025-01-06"), spec, Bound{MaxCount: 4}))

	assert.Equal(t, days("2025-01-06"), Generate(day("2025-01-06"), Spec{}, Bound{MaxCount: 4}))
	assert.Equal(t, days("2025-01-06"), Generate(day("2025-01-06"), Spec{RepeatOption: RepeatNone, ByDays: []int{1, 3}}, Bound{MaxCount: 4}))
}

func TestGenerate_UntilIsInclusive(t *testing.T) {
	until := day("2025-01-20")
	got := Generate(day("2025-01-06"), Spec{RepeatOption: RepeatWeekly}, Bound{Until: &until})
	assert.Equal(t, days("2025-01-06", "2025-01-13", "2025-01-20"), got)
}

func TestGenerate_UntilBeforeStartIsEmpty(t *testing.T) {
	until := day("2025-01-01")
	got := Generate(day("2025-01-06"), Spec{RepeatOption: RepeatWeekly}, Bound{Until: &until})
	assert.Empty(t, got)
}

func TestGenerate_CountAndUntilBothApply(t *testing.T) {
	until := day("2025-12-31")
	got := Generate(day("2025-01-06"), Spec{RepeatOption: RepeatWeekly}, Bound{MaxCount: 2, Until: &until})
	assert.Len(t, got, 2)
}

func TestDefaultUntil(t *testing.T) {
	cases := []struct {
		start string
		want  string
	}{
		{"2025-09-01", "2026-01-15"},
		{"2025-01-06", "2025-01-15"},
		{"2025-01-15", "2026-01-15"},
		{"2025-02-01", "2026-01-15"},
	}
	for _, tc := range cases {
		t.Run(tc.start, func(t *testing.T) {
			assert.Equal(t, day(tc.want), DefaultUntil(day(tc.start)))
		})
	}
}

func TestGenerate_DefaultBoundStopsAtJanuary15(t *testing.T) {
	got := Generate(day("2025-12-29"), Spec{RepeatOption: RepeatWeekly}, Bound{})
	assert.Equal(t, days("2025-12-29", "2026-01-05", "2026-01-12"), got)
}

func TestGenerate_Boundedness(t *testing.T) {
	specs := []Spec{
		{RepeatOption: RepeatWeekly},
		{RepeatOption: RepeatBiweekly},
		{RepeatOption: RepeatEvery234},
		{RepeatOption: RepeatDaily},
		{RepeatOption: RepeatMonthly},
		{RepeatOption: RepeatCustom, ByDays: []int{0, 2, 4, 6}, IntervalWeeks: 2},
		{RepeatOption: RepeatCustom, ByDays: []int{1, 2, 3, 4, 5}},
	}
	starts := []string{"2024-02-29", "2025-01-14", "2025-06-30", "2025-09-01"}
	untilFar := day("2030-01-01")
	bounds := []Bound{{}, {MaxCount: 5}, {MaxCount: 10000}, {Until: &untilFar}}

	for _, spec := range specs {
		for _, s := range starts {
			for _, b := range bounds {
				start := day(s)
				got := Generate(start, spec, b)

				require.LessOrEqual(t, len(got), SafetyCap)
				if b.MaxCount > 0 {
					require.LessOrEqual(t, len(got), b.MaxCount)
				}
				limit, hasLimit := b.limit(start)
				for i, d := range got {
					require.False(t, d.Before(start), "%s before start %s", d, start)
					if hasLimit {
						require.False(t, d.After(limit), "%s after bound %s", d, limit)
					}
					if i > 0 {
						require.True(t, d.After(got[i-1]), "not strictly increasing at %d", i)
					}
				}
			}
		}
	}
}

func TestSpecValidate(t *testing.T) {
	assert.NoError(t, Spec{RepeatOption: RepeatWeekly}.Validate())
	assert.Error(t, Spec{RepeatOption: "fortnightly"}.Validate())
	assert.Error(t, Spec{RepeatOption: RepeatCustom}.Validate())
	assert.Error(t, Spec{RepeatOption: RepeatCustom, ByDays: []int{7}}.Validate())
	assert.Error(t, Spec{RepeatOption: RepeatWeekly, IntervalWeeks: -1}.Validate())
}
