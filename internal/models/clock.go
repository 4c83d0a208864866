package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a local wall-clock time expressed as minutes after midnight.
type ClockTime int

// ParseClockTime parses a 24-hour "HH:MM" string.
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("time %q has an invalid hour", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q has an invalid minute", raw)
	}
	return ClockTime(hours*60 + minutes), nil
}

// String formats the time as "HH:MM".
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
