package util

import (
	"strconv"
	"time"
)

// MustParseUint parses s as an unsigned id, returning 0 on failure.
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseUintParam parses a path id, rejecting zero and garbage as validation
// errors.
func ParseUintParam(name, s string) (uint, error) {
	id := MustParseUint(s)
	if id == 0 {
		return 0, Validationf("%s must be a positive integer", name)
	}
	return id, nil
}

// ParseDate accepts DateFormat or RFC3339. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(DateFormat, s, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, Validationf("invalid date %q, use %s or RFC3339", s, DateFormat)
	}
	return &t, nil
}
