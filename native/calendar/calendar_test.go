package calendar

import "testing"

func TestTimestampToDateEpoch(t *testing.T) {
	date, err := TimestampToDate(0)
	if err != nil {
		t.Fatalf("decompose epoch: %v", err)
	}
	if date.Year != 1970 || date.Month != 1 || date.Day != 1 {
		t.Fatalf("unexpected epoch date: %+v", date)
	}
}

func TestTimestampToDateKnownDays(t *testing.T) {
	cases := []struct {
		ts    int64
		year  int
		month int
		day   int
	}{
		{86399, 1970, 1, 1},
		{86400, 1970, 1, 2},
		{68169600, 1972, 2, 29},   // leap day
		{951782400, 2000, 2, 29},  // century leap day (2000 % 400 == 0)
		{1709164800, 2024, 2, 29}, // recent leap day
		{1696118400, 2023, 10, 1},
		{4107542400, 2100, 3, 1}, // 2100 is not a leap year
	}
	for _, tc := range cases {
		date, err := TimestampToDate(tc.ts)
		if err != nil {
			t.Fatalf("decompose %d: %v", tc.ts, err)
		}
		if date.Year != tc.year || date.Month != tc.month || date.Day != tc.day {
			t.Fatalf("timestamp %d: got %+v want %d-%d-%d", tc.ts, date, tc.year, tc.month, tc.day)
		}
	}
}

func TestTimestampToDateNegative(t *testing.T) {
	if _, err := TimestampToDate(-1); err != ErrInvalidTimestamp {
		t.Fatalf("expected invalid timestamp error, got %v", err)
	}
}

func TestDateRoundTrip(t *testing.T) {
	// Step across five decades in odd increments so month and year
	// boundaries are crossed at varying offsets.
	for ts := int64(0); ts < int64(50*366)*secondsPerDay; ts += 13*secondsPerDay + 12345 {
		date, err := TimestampToDate(ts)
		if err != nil {
			t.Fatalf("decompose %d: %v", ts, err)
		}
		back, err := DateToTimestamp(date)
		if err != nil {
			t.Fatalf("compose %+v: %v", date, err)
		}
		if want := ts - ts%secondsPerDay; back != want {
			t.Fatalf("round trip %d: got %d want %d", ts, back, want)
		}
	}
}

func TestDerivedViewsAgree(t *testing.T) {
	for ts := int64(0); ts < int64(3*366)*secondsPerDay; ts += 7*secondsPerDay + 3600 {
		date, err := TimestampToDate(ts)
		if err != nil {
			t.Fatalf("decompose %d: %v", ts, err)
		}
		month, err := MonthOf(ts)
		if err != nil {
			t.Fatalf("month of %d: %v", ts, err)
		}
		if month != date.Month {
			t.Fatalf("month mismatch at %d: %d vs %d", ts, month, date.Month)
		}
		quarter, err := QuarterOf(ts)
		if err != nil {
			t.Fatalf("quarter of %d: %v", ts, err)
		}
		if want := (date.Month-1)/3 + 1; quarter != want {
			t.Fatalf("quarter mismatch at %d: %d vs %d", ts, quarter, want)
		}
		doy, err := DayOfYear(ts)
		if err != nil {
			t.Fatalf("day of year %d: %v", ts, err)
		}
		rebuilt := date.Day
		for m := 1; m < date.Month; m++ {
			dim, err := DaysInMonth(date.Year, m)
			if err != nil {
				t.Fatalf("days in month: %v", err)
			}
			rebuilt += dim
		}
		if doy != rebuilt {
			t.Fatalf("day of year mismatch at %d: %d vs %d", ts, doy, rebuilt)
		}
	}
}

func TestMonthInRange(t *testing.T) {
	cases := []struct {
		month, start, end int
		want              bool
	}{
		{5, 4, 6, true},
		{4, 4, 6, true},
		{6, 4, 6, true},
		{7, 4, 6, false},
		{12, 11, 2, true},
		{1, 11, 2, true},
		{2, 11, 2, true},
		{3, 11, 2, false},
		{10, 11, 2, false},
		{6, 6, 6, true},
		{7, 6, 6, false},
	}
	for _, tc := range cases {
		got, err := MonthInRange(tc.month, tc.start, tc.end)
		if err != nil {
			t.Fatalf("month in range (%d,%d,%d): %v", tc.month, tc.start, tc.end, err)
		}
		if got != tc.want {
			t.Fatalf("month in range (%d,%d,%d): got %v want %v", tc.month, tc.start, tc.end, got, tc.want)
		}
	}
	if _, err := MonthInRange(0, 1, 12); err != ErrInvalidMonth {
		t.Fatalf("expected invalid month error, got %v", err)
	}
	if _, err := MonthInRange(5, 13, 2); err != ErrInvalidMonth {
		t.Fatalf("expected invalid month error, got %v", err)
	}
}

func TestOppositeMonthInvolution(t *testing.T) {
	for month := 1; month <= 12; month++ {
		opposite, err := OppositeMonth(month)
		if err != nil {
			t.Fatalf("opposite of %d: %v", month, err)
		}
		if opposite < 1 || opposite > 12 {
			t.Fatalf("opposite of %d out of range: %d", month, opposite)
		}
		back, err := OppositeMonth(opposite)
		if err != nil {
			t.Fatalf("opposite of %d: %v", opposite, err)
		}
		if back != month {
			t.Fatalf("double opposite of %d: got %d", month, back)
		}
	}
	if _, err := OppositeMonth(13); err != ErrInvalidMonth {
		t.Fatalf("expected invalid month error, got %v", err)
	}
}

func TestOppositeMonthValues(t *testing.T) {
	want := map[int]int{1: 7, 2: 8, 3: 9, 4: 10, 5: 11, 6: 12, 7: 1, 8: 2, 9: 3, 10: 4, 11: 5, 12: 6}
	for month, expected := range want {
		got, err := OppositeMonth(month)
		if err != nil {
			t.Fatalf("opposite of %d: %v", month, err)
		}
		if got != expected {
			t.Fatalf("opposite of %d: got %d want %d", month, got, expected)
		}
	}
}
