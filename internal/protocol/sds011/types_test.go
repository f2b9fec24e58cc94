package sds011

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkingPeriod_Range(t *testing.T) {
	p, err := ParseWorkingPeriod("0")
	require.NoError(t, err)
	assert.True(t, p.IsContinuous())

	p, err = ParseWorkingPeriod("30")
	require.NoError(t, err)
	assert.False(t, p.IsContinuous())
	assert.Equal(t, 30, p.Minutes())

	_, err = ParseWorkingPeriod("31")
	assert.ErrorContains(t, err, "out of range")

	_, err = ParseWorkingPeriod("-1")
	assert.ErrorContains(t, err, "out of range")

	_, err = ParseWorkingPeriod("abc")
	assert.Error(t, err)
}

func TestNewWorkingPeriod_Bounds(t *testing.T) {
	for _, n := range []int{0, 1, 15, 30} {
		if _, err := NewWorkingPeriod(n); err != nil {
			t.Fatalf("NewWorkingPeriod(%d): %v", n, err)
		}
	}
	for _, n := range []int{-5, -1, 31, 256} {
		if _, err := NewWorkingPeriod(n); err == nil {
			t.Fatalf("NewWorkingPeriod(%d): expected error", n)
		}
	}
}

func TestWorkingPeriod_String(t *testing.T) {
	assert.Equal(t, "continuous", WorkingPeriodContinuous.String())
	p, _ := NewWorkingPeriod(5)
	assert.Equal(t, "every 5 min", p.String())
}

func TestParseReportingMode(t *testing.T) {
	cases := []struct {
		in   string
		want ReportingMode
		ok   bool
	}{
		{"active", ReportingActive, true},
		{"Query", ReportingQuery, true},
		{"ACTIVE", ReportingActive, true},
		{"push", 0, false},
	}
	for _, c := range cases {
		got, err := ParseReportingMode(c.in)
		if c.ok {
			require.NoError(t, err, c.in)
			assert.Equal(t, c.want, got, c.in)
		} else {
			assert.Error(t, err, c.in)
		}
	}
}

func TestParseWorkMode(t *testing.T) {
	cases := []struct {
		in   string
		want WorkMode
		ok   bool
	}{
		{"work", WorkMeasuring, true},
		{"on", WorkMeasuring, true},
		{"sleep", WorkSleep, true},
		{"OFF", WorkSleep, true},
		{"standby", 0, false},
	}
	for _, c := range cases {
		got, err := ParseWorkMode(c.in)
		if c.ok {
			require.NoError(t, err, c.in)
			assert.Equal(t, c.want, got, c.in)
		} else {
			assert.Error(t, err, c.in)
		}
	}
}

func TestModeFromByte(t *testing.T) {
	assert.Equal(t, ReportingActive, ReportingModeFromByte(0x00))
	assert.Equal(t, ReportingQuery, ReportingModeFromByte(0x01))
	assert.Equal(t, ReportingQuery, ReportingModeFromByte(0x7F))
	assert.Equal(t, WorkSleep, WorkModeFromByte(0x00))
	assert.Equal(t, WorkMeasuring, WorkModeFromByte(0x02))
}
