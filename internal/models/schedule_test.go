package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*3600)

func TestWeeklyScheduleResolvesByDayOnly(t *testing.T) {
	var schedule WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(`{"monday":{"isOpen":true,"openTime":"09:00","closeTime":"18:00"}}`), &schedule))

	monday := time.Date(2025, 1, 6, 23, 30, 0, 0, jakarta)
	today := schedule.At(monday)
	assert.True(t, today.IsOpen)
	require.NotNil(t, today.OpenTime)
	assert.Equal(t, "09:00", today.OpenTime.String())
	assert.Equal(t, "18:00", today.CloseTime.String())

	tuesday := monday.Add(24 * time.Hour)
	assert.Equal(t, TodayHours{IsOpen: false}, schedule.At(tuesday))
}

func TestWeeklyScheduleUsesZoneWeekday(t *testing.T) {
	schedule := WeeklySchedule{}
	schedule.Days[Tuesday] = OpenDay("08:00", "17:00")

	// Monday 20:00 UTC is already Tuesday 03:00 in Jakarta.
	instant := time.Date(2025, 1, 6, 20, 0, 0, 0, time.UTC)
	assert.False(t, schedule.At(instant).IsOpen)
	assert.True(t, schedule.At(instant.In(jakarta)).IsOpen)
}

func TestWeeklyScheduleJSONRoundTrip(t *testing.T) {
	input := `{"sunday":{"isOpen":false},"monday":{"isOpen":true,"openTime":"9:00","closeTime":"18:30"}}`
	var schedule WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(input), &schedule))

	out, err := json.Marshal(schedule)
	require.NoError(t, err)
	assert.JSONEq(t, `{"monday":{"isOpen":true,"openTime":"09:00","closeTime":"18:30"},"sunday":{"isOpen":false}}`, string(out))
	assert.Equal(t, `{"monday":{"isOpen":true,"openTime":"09:00","closeTime":"18:30"},"sunday":{"isOpen":false}}`, string(out))
}

func TestWeeklyScheduleRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown day":  `{"funday":{"isOpen":true}}`,
		"bad time":     `{"monday":{"isOpen":true,"openTime":"25:00","closeTime":"18:00"}}`,
		"not a string": `{"monday":{"isOpen":true,"openTime":900,"closeTime":"18:00"}}`,
		"not object":   `["monday"]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var schedule WeeklySchedule
			assert.Error(t, json.Unmarshal([]byte(raw), &schedule))
		})
	}
}

func TestWeeklyScheduleIgnoresTimesOfClosedDays(t *testing.T) {
	raw := `{"saturday":{"isOpen":false,"openTime":"","closeTime":""},"sunday":{"isOpen":false,"openTime":"banana","closeTime":9}}`
	var schedule WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(raw), &schedule))
	assert.Equal(t, &DayHours{IsOpen: false}, schedule.Days[Saturday])
	assert.Equal(t, &DayHours{IsOpen: false}, schedule.Days[Sunday])
	assert.NoError(t, schedule.Validate())

	require.NoError(t, schedule.Scan([]byte(raw)))
	assert.False(t, schedule.On(Saturday).IsOpen)
}

func TestWeeklyScheduleEmptyTimeOnOpenDayFailsValidation(t *testing.T) {
	var schedule WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(`{"monday":{"isOpen":true,"openTime":"","closeTime":"18:00"}}`), &schedule))
	assert.Nil(t, schedule.Days[Monday].OpenTime)
	assert.ErrorContains(t, schedule.Validate(), "operatingHours.monday")
}

func TestWeeklyScheduleValidate(t *testing.T) {
	valid := WeeklySchedule{}
	valid.Days[Friday] = OpenDay("10:00", "21:00")
	valid.Days[Saturday] = &DayHours{IsOpen: false}
	assert.NoError(t, valid.Validate())

	reversed := WeeklySchedule{}
	reversed.Days[Friday] = OpenDay("21:00", "10:00")
	assert.ErrorContains(t, reversed.Validate(), "operatingHours.friday")

	missing := WeeklySchedule{}
	missing.Days[Sunday] = &DayHours{IsOpen: true}
	assert.ErrorContains(t, missing.Validate(), "required")
}

func TestWeekViewOrderAndLabels(t *testing.T) {
	schedule := WeeklySchedule{}
	schedule.Days[Monday] = OpenDay("09:00", "18:00")
	schedule.Days[Wednesday] = &DayHours{IsOpen: false}

	out, err := json.Marshal(schedule.View())
	require.NoError(t, err)
	assert.Equal(t, `{"Senin":"09:00 - 18:00","Selasa":"Tutup","Rabu":"Tutup","Kamis":"Tutup","Jumat":"Tutup","Sabtu":"Tutup","Minggu":"Tutup"}`, string(out))
}

func TestWeeklyScheduleScan(t *testing.T) {
	var schedule WeeklySchedule
	require.NoError(t, schedule.Scan([]byte(`{"friday":{"isOpen":true,"openTime":"10:00","closeTime":"20:00"}}`)))
	assert.True(t, schedule.On(Friday).IsOpen)

	require.NoError(t, schedule.Scan(nil))
	assert.True(t, schedule.IsEmpty())

	value, err := schedule.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), value)

	assert.Error(t, schedule.Scan(42))
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, Monday, DayOf(time.Monday))
	assert.Equal(t, Sunday, DayOf(time.Sunday))
	assert.Equal(t, "saturday", DayOf(time.Saturday).Key())
}
