package clock

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDayAcceptsEveryMinute(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			in := fmt.Sprintf("%02d:%02d", h, m)
			got, err := ParseTimeOfDay(in)
			require.NoError(t, err, in)
			require.Equal(t, in, got)
		}
	}
}

func TestParseTimeOfDayTrimsSpaces(t *testing.T) {
	got, err := ParseTimeOfDay("  17:30\n")
	require.NoError(t, err)
	require.Equal(t, "17:30", got)
}

func TestParseTimeOfDayRejects(t *testing.T) {
	for _, in := range []string{
		"", "9:00", "09:0", "24:00", "23:60", "7:5", "09-00", "0900",
		"09:00:00", "09:00 PM", "ab:cd", "-1:00", "09 :00", "１２:００",
	} {
		_, err := ParseTimeOfDay(in)
		require.Truef(t, errors.Is(err, ErrInvalidTimeOfDay), "input %q: %v", in, err)
	}
}

func TestKeyUsesLocationAndDropsSeconds(t *testing.T) {
	loc, err := LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	utc := time.Date(2026, 3, 1, 2, 30, 59, 999, time.UTC)
	require.Equal(t, "08:00", Key(utc, loc))
	require.Equal(t, "02:30", Key(utc, nil))
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus")
	require.Error(t, err)
}
