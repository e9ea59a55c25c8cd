package service

import (
	"testing"
	"time"

	"uniplanner/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStart_MinOffset(t *testing.T) {
	v := NewScheduleValidator(time.UTC, func() time.Time { return fixedNow })
	today := mustDate("2025-03-10")

	cases := []struct {
		clock string
		want  errors.ErrorCode
	}{
		{"11:00", errors.ErrSchedMinOffset},
		{"12:00", errors.ErrSchedMinOffset},
		{"12:03", errors.ErrSchedMinOffset},
		{"12:04", ""},
		{"12:05", ""},
		{"23:59", ""},
	}
	for _, tc := range cases {
		t.Run(tc.clock, func(t *testing.T) {
			clock := tc.clock
			appErr := v.ValidateStart(today, &clock)
			if tc.want == "" {
				assert.Nil(t, appErr)
				return
			}
			require.NotNil(t, appErr)
			assert.Equal(t, tc.want, appErr.Code)
		})
	}
}

func TestValidateStart_AllDayOnlyChecksDate(t *testing.T) {
	v := NewScheduleValidator(time.UTC, func() time.Time { return fixedNow })

	assert.Nil(t, v.ValidateStart(mustDate("2025-03-10"), nil))
	assert.Nil(t, v.ValidateStart(mustDate("2025-03-10"), strp("")))

	appErr := v.ValidateStart(mustDate("2025-03-09"), nil)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPastDate, appErr.Code)
}

func TestValidateStart_TomorrowMidnight(t *testing.T) {
	v := NewScheduleValidator(time.UTC, func() time.Time { return fixedNow })
	assert.Nil(t, v.ValidateStart(mustDate("2025-03-11"), strp("00:00")))
}

func TestValidateStart_UsesConfiguredLocation(t *testing.T) {
	// 20:00 UTC is already 03:00 on the 11th at UTC+7.
	loc := time.FixedZone("UTC+7", 7*60*60)
	v := NewScheduleValidator(loc, func() time.Time { return time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC) })

	assert.Equal(t, "2025-03-11", v.Today().String())

	appErr := v.ValidateDate(mustDate("2025-03-10"))
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPastDate, appErr.Code)

	appErr = v.ValidateStart(mustDate("2025-03-11"), strp("03:02"))
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrSchedMinOffset, appErr.Code)
	assert.Nil(t, v.ValidateStart(mustDate("2025-03-11"), strp("03:10")))
}

func TestValidateStart_InvalidClock(t *testing.T) {
	v := NewScheduleValidator(time.UTC, func() time.Time { return fixedNow })
	appErr := v.ValidateStart(mustDate("2025-03-11"), strp("25:00"))
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}
