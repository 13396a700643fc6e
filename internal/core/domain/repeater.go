package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidSchedule = errors.New("invalid or missing repeater on scheduled date")
	ErrInvalidDuration = errors.New("invalid duration string")
)

// RepeaterKind selects how a completion anchors the next occurrence.
type RepeaterKind string

const (
	// RepeaterFixed (".+") anchors the next occurrence to the actual
	// completion date.
	RepeaterFixed RepeaterKind = ".+"
	// RepeaterAccumulating ("+") anchors to the original schedule plus one
	// period per completion.
	RepeaterAccumulating RepeaterKind = "+"
	// RepeaterCatchUp ("++") behaves like RepeaterAccumulating but also
	// fast-forwards through missed periods.
	RepeaterCatchUp RepeaterKind = "++"
)

// Day-equivalents for the duration units. Months and years are averages,
// matching how plain-text agenda repeaters are conventionally interpreted.
var unitDays = map[byte]float64{
	'd': 1,
	'w': 7,
	'm': 30.4,
	'y': 365.25,
}

var durationRegex = regexp.MustCompile(`^([0-9]+)([dwmy])$`)

// Repeater is the parsed form of a repeater token such as ".+2d/4d":
// kind, minimum repeat interval, and optional deadline interval.
type Repeater struct {
	Kind          RepeaterKind
	ScheduledDays int
	DeadlineDays  int // 0 when the token carries no /M part
}

// DurationToDays converts a <digits><unit> token into whole days, flooring
// fractional month/year products.
func DurationToDays(token string) (int, error) {
	m := durationRegex.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}

	return int(float64(n) * unitDays[m[2][0]]), nil
}

// ParseRepeater parses `<kind><N><unit>[/<M><unit>]` where kind is one of
// ".+", "+", "++". The /M part, when present, sets the deadline interval and
// must exceed the scheduled interval.
func ParseRepeater(token string) (Repeater, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Repeater{}, fmt.Errorf("%w: empty repeater", ErrInvalidSchedule)
	}

	var kind RepeaterKind
	switch {
	case strings.HasPrefix(token, string(RepeaterFixed)):
		kind = RepeaterFixed
	case strings.HasPrefix(token, string(RepeaterCatchUp)):
		kind = RepeaterCatchUp
	case strings.HasPrefix(token, string(RepeaterAccumulating)):
		kind = RepeaterAccumulating
	default:
		return Repeater{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, token)
	}

	rest := token[len(kind):]

	scheduledTok := rest
	deadlineTok := ""
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		scheduledTok = rest[:idx]
		deadlineTok = rest[idx+1:]
	}

	scheduledDays, err := DurationToDays(scheduledTok)
	if err != nil {
		return Repeater{}, err
	}
	if scheduledDays <= 0 {
		return Repeater{}, fmt.Errorf("%w: repeat interval must be positive in %q", ErrInvalidSchedule, token)
	}

	r := Repeater{Kind: kind, ScheduledDays: scheduledDays}

	if deadlineTok != "" {
		deadlineDays, err := DurationToDays(deadlineTok)
		if err != nil {
			return Repeater{}, err
		}
		if deadlineDays <= scheduledDays {
			return Repeater{}, fmt.Errorf("%w: deadline interval %dd must exceed repeat interval %dd",
				ErrInvalidSchedule, deadlineDays, scheduledDays)
		}
		r.DeadlineDays = deadlineDays
	}

	return r, nil
}
