package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidWeekdaySet = errors.New("invalid weekday set (must be integers 1-7)")

// Weekday is an ISO weekday: Monday=1 .. Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf maps a time.Time onto the 1..7 numbering.
func WeekdayOf(t time.Time) Weekday {
	wd := int(t.Weekday())
	if wd == 0 {
		return Sunday
	}
	return Weekday(wd)
}

// WeekdayIncrement shifts wd by delta days (delta may be negative or zero)
// and normalizes back into 1..7. It is a modular group action:
// WeekdayIncrement(WeekdayIncrement(wd, a), b) == WeekdayIncrement(wd, a+b).
func WeekdayIncrement(wd Weekday, delta int) Weekday {
	n := (int(wd) - 1 + delta) % 7
	if n < 0 {
		n += 7
	}
	return Weekday(n + 1)
}

// WeekdaySet is a subset of {1..7} stored as a bitmask (bit 0 = Monday).
type WeekdaySet uint8

const allWeekdaysMask WeekdaySet = 0x7f

// AllWeekdays returns the unconstrained set containing every weekday.
func AllWeekdays() WeekdaySet {
	return allWeekdaysMask
}

// ParseWeekdaySet parses a space-separated list of integers 1..7.
// An empty or all-whitespace string means no restriction: all seven days.
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return AllWeekdays(), nil
	}

	var set WeekdaySet
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > 7 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekdaySet, f)
		}
		set |= 1 << (n - 1)
	}
	return set, nil
}

func (s WeekdaySet) Contains(wd Weekday) bool {
	if wd < Monday || wd > Sunday {
		return false
	}
	return s&(1<<(int(wd)-1)) != 0
}

func (s WeekdaySet) IsEmpty() bool {
	return s&allWeekdaysMask == 0
}

func (s WeekdaySet) Count() int {
	n := 0
	for wd := Monday; wd <= Sunday; wd++ {
		if s.Contains(wd) {
			n++
		}
	}
	return n
}

// Weekdays returns the members in ascending order.
func (s WeekdaySet) Weekdays() []Weekday {
	var out []Weekday
	for wd := Monday; wd <= Sunday; wd++ {
		if s.Contains(wd) {
			out = append(out, wd)
		}
	}
	return out
}

func (s WeekdaySet) String() string {
	parts := make([]string, 0, 7)
	for _, wd := range s.Weekdays() {
		parts = append(parts, strconv.Itoa(int(wd)))
	}
	return strings.Join(parts, " ")
}
