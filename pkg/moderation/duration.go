package moderation

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"emperror.dev/errors"
)

// ParseDuration parses strings like "1d3h", "90m" or "2 weeks". A bare
// number is read as minutes. Zero or negative results are rejected.
func ParseDuration(str string) (time.Duration, error) {
	var dur time.Duration
	var num, unit string

	for _, r := range strings.ToLower(str) {
		if unicode.IsSpace(r) {
			continue
		}

		if unicode.IsDigit(r) {
			// a new number after a unit closes the previous component
			if unit != "" {
				d, err := durationComponent(num, unit)
				if err != nil {
					return 0, err
				}
				if dur, err = addDuration(dur, d); err != nil {
					return 0, err
				}
				num, unit = "", ""
			}
			num += string(r)
			continue
		}

		if num == "" {
			return 0, errors.Errorf("unit %q has no amount", string(r))
		}
		unit += string(r)
	}

	if num != "" {
		d, err := durationComponent(num, unit)
		if err != nil {
			return 0, errors.WrapIf(err, "not a duration")
		}
		if dur, err = addDuration(dur, d); err != nil {
			return 0, err
		}
	}

	if dur <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return dur, nil
}

func addDuration(dur, d time.Duration) (time.Duration, error) {
	if dur > math.MaxInt64-d {
		return 0, errors.New("duration is too long")
	}
	return dur + d, nil
}

func durationComponent(num, unit string) (time.Duration, error) {
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var size time.Duration
	switch {
	case strings.HasPrefix(unit, "s"):
		size = time.Second
	case unit == "", strings.HasPrefix(unit, "m") && !strings.HasPrefix(unit, "mo"):
		size = time.Minute
	case strings.HasPrefix(unit, "h"):
		size = time.Hour
	case strings.HasPrefix(unit, "d"):
		size = 24 * time.Hour
	case strings.HasPrefix(unit, "w"):
		size = 7 * 24 * time.Hour
	case strings.HasPrefix(unit, "mo"):
		size = 30 * 24 * time.Hour
	case strings.HasPrefix(unit, "y"):
		size = 365 * 24 * time.Hour
	default:
		return 0, errors.Errorf("couldn't figure out what '%s%s' was", num, unit)
	}

	if n > math.MaxInt64/int64(size) {
		return 0, errors.Errorf("'%s%s' is too long", num, unit)
	}
	return time.Duration(n) * size, nil
}
