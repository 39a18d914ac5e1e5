package queue

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseIntervals parses a comma-separated list of second counts (e.g.
// "5,15,60") from RQ_RETRY_INTERVALS into a Duration slice. A blank
// input falls back to a single interval built from fallbackSeconds
// (RQ_RETRY_INTERVAL).
func ParseIntervals(csv string, fallbackSeconds int) ([]time.Duration, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		if fallbackSeconds <= 0 {
			fallbackSeconds = 5
		}
		return []time.Duration{time.Duration(fallbackSeconds) * time.Second}, nil
	}

	parts := strings.Split(csv, ",")
	intervals := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		secs, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("queue: invalid retry interval %q: %w", p, err)
		}
		intervals = append(intervals, time.Duration(secs)*time.Second)
	}
	if len(intervals) == 0 {
		return nil, fmt.Errorf("queue: no valid retry intervals in %q", csv)
	}
	return intervals, nil
}
