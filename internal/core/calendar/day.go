package calendar

import "time"

// Day is an immutable calendar day: a day number (days since 1970-01-01)
// paired with its weekday. The pair is fixed at construction; AddDays and
// AdvanceToAllowed keep the two consistent.
type Day struct {
	number  int
	weekday Weekday
}

// NewDay builds a Day from an explicit number/weekday pair. Callers that
// start from a wall-clock time should use DayOf instead, which derives the
// weekday from the date.
func NewDay(number int, wd Weekday) Day {
	return Day{number: number, weekday: wd}
}

// DayOf truncates t to its civil date and returns the matching Day.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	num := int(midnight.Sub(epoch).Hours() / 24)
	return Day{number: num, weekday: WeekdayOf(midnight)}
}

func (d Day) Number() int {
	return d.number
}

func (d Day) Weekday() Weekday {
	return d.weekday
}

// Time maps the day back onto a UTC midnight timestamp.
func (d Day) Time() time.Time {
	epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	return epoch.AddDate(0, 0, d.number)
}

// AddDays moves by n plain calendar days; the weekday wraps normally.
func (d Day) AddDays(n int) Day {
	return Day{number: d.number + n, weekday: WeekdayIncrement(d.weekday, n)}
}

func (d Day) Before(other Day) bool {
	return d.number < other.number
}

func (d Day) Equal(other Day) bool {
	return d.number == other.number
}

// LackingWeekdays steps |delta| single days from wd (direction given by the
// sign of delta) and counts how many of the stepped-onto weekdays are not in
// set. The count is used to inflate a raw date delta so that the landing day
// is an allowed weekday.
func LackingWeekdays(wd Weekday, delta int, set WeekdaySet) int {
	step := 1
	if delta < 0 {
		step = -1
		delta = -delta
	}

	count := 0
	for i := 0; i < delta; i++ {
		wd = WeekdayIncrement(wd, step)
		if !set.Contains(wd) {
			count++
		}
	}
	return count
}

// AdvanceToAllowed adds rawDelta days to day, then pushes the result forward
// until it lands on a weekday in set. With the full weekday set this is plain
// day addition. set must be non-empty; termination follows from that.
func AdvanceToAllowed(day Day, rawDelta int, set WeekdaySet) Day {
	tentative := day.number + rawDelta
	wd := WeekdayIncrement(day.weekday, rawDelta)

	lack := LackingWeekdays(day.weekday, rawDelta, set)
	tentative += lack
	wd = WeekdayIncrement(wd, lack)

	for !set.Contains(wd) {
		tentative++
		wd = WeekdayIncrement(wd, 1)
	}

	return Day{number: tentative, weekday: wd}
}

// NextAllowedWeekday answers: applying a repeat of rawDelta days from weekday
// wd, which allowed weekday is landed on, and how many days does the move
// span in total once disallowed days are skipped? The caller performing the
// actual reschedule applies the returned offset; nothing is mutated here.
func NextAllowedWeekday(wd Weekday, rawDelta int, set WeekdaySet) (Weekday, int) {
	offset := rawDelta + LackingWeekdays(wd, rawDelta, set)
	landed := WeekdayIncrement(wd, offset)

	for !set.Contains(landed) {
		offset++
		landed = WeekdayIncrement(landed, 1)
	}

	return landed, offset
}
