package workSessionService

import (
	"time"

	workSession "WorkHoursMonitor/internal/api/work_session"
)

const shiftLayout = "15:04"

// dayBounds resolves date (YYYY-MM-DD, empty for today) to the half-open
// range [start, end) of that calendar day in loc.
func dayBounds(date string, now time.Time, loc *time.Location) (string, time.Time, time.Time, error) {
	var day time.Time
	if date == "" {
		local := now.In(loc)
		day = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	} else {
		parsed, err := time.ParseInLocation(workSession.DateLayout, date, loc)
		if err != nil {
			return "", time.Time{}, time.Time{}, workSession.ErrInvalidDate
		}
		day = parsed
	}
	return day.Format(workSession.DateLayout), day, day.AddDate(0, 0, 1), nil
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// withinAutoStartWindow reports whether now falls in
// [shiftStart, shiftStart+AutoStartWindow], wrapping past midnight.
func withinAutoStartWindow(shiftStart string, now time.Time, loc *time.Location) bool {
	start, err := time.Parse(shiftLayout, shiftStart)
	if err != nil {
		return false
	}

	const minutesPerDay = 24 * 60
	from := minuteOfDay(start)
	to := from + int(AutoStartWindow/time.Minute)
	current := minuteOfDay(now.In(loc))

	if to < minutesPerDay {
		return current >= from && current <= to
	}
	return current >= from || current <= to-minutesPerDay
}
