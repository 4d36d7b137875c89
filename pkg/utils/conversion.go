package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StringToUint64 converts a decimal string to uint64, returning 0 when it
// does not parse. Useful for ids taken from URL parameters.
func StringToUint64(str string) uint64 {
	val, err := strconv.ParseUint(strings.TrimSpace(str), 10, 64)
	if err != nil {
		return 0
	}
	return val
}

// ParseFloat parses a finite decimal number. NaN and infinities are rejected.
func ParseFloat(str string) (float64, error) {
	val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%q is not a finite number", str)
	}
	return val, nil
}

// ParseOptionalFloat parses str when non-empty. An empty string yields nil.
func ParseOptionalFloat(str string) (*float64, error) {
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}
	val, err := ParseFloat(str)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

// ParsePositiveInt parses str as an int >= 1, using fallback when str is empty.
func ParsePositiveInt(str string, fallback int) (int, error) {
	if strings.TrimSpace(str) == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return 0, err
	}
	if val < 1 {
		return 0, fmt.Errorf("%d is not a positive integer", val)
	}
	return val, nil
}
