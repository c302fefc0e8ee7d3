package util

import (
	"strconv"
	"strings"
	"time"
)

func ParseInt(str string, fallback int) int {
	if v, err := strconv.Atoi(str); err == nil {
		return v
	}
	return fallback
}

func ParseBool(str string, fallback bool) bool {
	if v, err := strconv.ParseBool(str); err == nil {
		return v
	}
	return fallback
}

// ParseDuration accepts Go duration strings ("1m30s") and bare integers,
// which are read as seconds.
func ParseDuration(str string, fallback time.Duration) time.Duration {
	str = strings.TrimSpace(str)
	if d, err := time.ParseDuration(str); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(str); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
