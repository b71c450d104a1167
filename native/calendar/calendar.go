package calendar

import "errors"

var (
	// ErrInvalidMonth is returned when a month argument falls outside 1-12.
	ErrInvalidMonth = errors.New("calendar: month out of range")
	// ErrInvalidTimestamp is returned for negative Unix timestamps.
	ErrInvalidTimestamp = errors.New("calendar: timestamp must not be negative")
	// ErrInvalidDate is returned when a (year, month, day) triple does not
	// name a real calendar day.
	ErrInvalidDate = errors.New("calendar: invalid date")
)

const (
	secondsPerDay = 86400
	epochYear     = 1970
)

var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Date is a calendar day decomposed from a Unix timestamp.
type Date struct {
	Year  int
	Month int
	Day   int
}

// IsLeapYear reports whether the given year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	if year%4 != 0 {
		return false
	}
	if year%100 != 0 {
		return true
	}
	return year%400 == 0
}

// DaysInMonth returns the number of days in the given month of the given
// year. Month arguments outside 1-12 fail with ErrInvalidMonth.
func DaysInMonth(year, month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, ErrInvalidMonth
	}
	days := daysPerMonth[month-1]
	if month == 2 && IsLeapYear(year) {
		days++
	}
	return days, nil
}

// TimestampToDate decomposes a non-negative Unix timestamp into its calendar
// year, month and day. Timestamp zero maps to 1970-01-01.
func TimestampToDate(ts int64) (Date, error) {
	if ts < 0 {
		return Date{}, ErrInvalidTimestamp
	}
	days := int(ts / secondsPerDay)

	year := epochYear
	for {
		yearDays := 365
		if IsLeapYear(year) {
			yearDays = 366
		}
		if days < yearDays {
			break
		}
		days -= yearDays
		year++
	}

	month := 1
	for {
		monthDays, err := DaysInMonth(year, month)
		if err != nil {
			return Date{}, err
		}
		if days < monthDays {
			break
		}
		days -= monthDays
		month++
	}

	return Date{Year: year, Month: month, Day: days + 1}, nil
}

// DateToTimestamp converts a calendar day back into the Unix timestamp of its
// midnight boundary. It is the inverse of TimestampToDate for any timestamp
// truncated to day precision.
func DateToTimestamp(d Date) (int64, error) {
	if d.Year < epochYear {
		return 0, ErrInvalidDate
	}
	monthDays, err := DaysInMonth(d.Year, d.Month)
	if err != nil {
		return 0, err
	}
	if d.Day < 1 || d.Day > monthDays {
		return 0, ErrInvalidDate
	}

	days := 0
	for year := epochYear; year < d.Year; year++ {
		if IsLeapYear(year) {
			days += 366
		} else {
			days += 365
		}
	}
	for month := 1; month < d.Month; month++ {
		dim, err := DaysInMonth(d.Year, month)
		if err != nil {
			return 0, err
		}
		days += dim
	}
	days += d.Day - 1

	return int64(days) * secondsPerDay, nil
}

// MonthOf returns the calendar month (1-12) containing the timestamp.
func MonthOf(ts int64) (int, error) {
	date, err := TimestampToDate(ts)
	if err != nil {
		return 0, err
	}
	return date.Month, nil
}

// DayOfYear returns the ordinal day within the timestamp's year, starting at
// 1 for January 1st.
func DayOfYear(ts int64) (int, error) {
	date, err := TimestampToDate(ts)
	if err != nil {
		return 0, err
	}
	day := date.Day
	for month := 1; month < date.Month; month++ {
		dim, err := DaysInMonth(date.Year, month)
		if err != nil {
			return 0, err
		}
		day += dim
	}
	return day, nil
}

// QuarterOf returns the calendar quarter (1-4) containing the timestamp.
func QuarterOf(ts int64) (int, error) {
	month, err := MonthOf(ts)
	if err != nil {
		return 0, err
	}
	return (month-1)/3 + 1, nil
}

// MonthInRange reports whether month falls inside the inclusive window
// [start, end]. Windows where end precedes start wrap across the year
// boundary, so (11, 2) covers November through February.
func MonthInRange(month, start, end int) (bool, error) {
	for _, m := range []int{month, start, end} {
		if m < 1 || m > 12 {
			return false, ErrInvalidMonth
		}
	}
	if start <= end {
		return month >= start && month <= end, nil
	}
	return month >= start || month <= end, nil
}

// OppositeMonth shifts a month by six, wrapping around the year. Applying it
// twice yields the original month.
func OppositeMonth(month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, ErrInvalidMonth
	}
	return (month-1+6)%12 + 1, nil
}
