package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRate parses a request budget like "40/60s" or "100/1m" into a
// count and a window length in seconds.
func ParseRate(s string) (int64, int64, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate format: %s", s)
	}
	limit, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || limit <= 0 {
		return 0, 0, fmt.Errorf("unexpected rate format: %s", s)
	}

	timeStr := parts[1]
	if len(timeStr) < 2 {
		return 0, 0, fmt.Errorf("unexpected time format: %s", timeStr)
	}
	unit := timeStr[len(timeStr)-1]
	numPart := timeStr[:len(timeStr)-1]
	value, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil || value <= 0 {
		return 0, 0, fmt.Errorf("unexpected time format: %s", timeStr)
	}
	var seconds int64
	switch unit {
	case 's':
		seconds = value
	case 'm':
		seconds = value * 60
	case 'h':
		seconds = value * 3600
	default:
		return 0, 0, fmt.Errorf("unexpected time unit: %s", string(unit))
	}
	return limit, seconds, nil
}
