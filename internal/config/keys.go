package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ValidKeys returns every config key in declaration order.
func ValidKeys() []string {
	keys := make([]string, len(keySpecs))
	for i, s := range keySpecs {
		keys[i] = s.key
	}
	return keys
}

// ValidateKey returns ErrUnknownKey if key, after normalization, is not a config key.
func ValidateKey(key string) error {
	if _, ok := lookupSpec(NormalizeKey(key)); !ok {
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(ValidKeys(), ", "))
	}
	return nil
}

// KeyCompletions returns the allowed values for an enumerated or boolean key.
func KeyCompletions(key string) []string {
	s, ok := lookupSpec(NormalizeKey(key))
	if !ok {
		return nil
	}
	if s.kind == kindBool {
		return []string{"true", "false"}
	}
	return slices.Clone(s.enum)
}

// ParseValue converts value to the typed value stored for key, rejecting
// values outside the key's allowed range.
func ParseValue(key, value string) (any, error) {
	s, ok := lookupSpec(NormalizeKey(key))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	switch s.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: must be true or false", value, s.key)
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: must be an integer", value, s.key)
		}
		if float64(n) < s.min {
			return nil, fmt.Errorf("invalid value %d for %s: must be at least %v", n, s.key, s.min)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: must be a number", value, s.key)
		}
		if f < s.min {
			return nil, fmt.Errorf("invalid value %v for %s: must be at least %v", f, s.key, s.min)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: must be a duration such as 5s", value, s.key)
		}
		if float64(d) < s.min {
			return nil, fmt.Errorf("invalid value %s for %s: must be positive", d, s.key)
		}
		return d.String(), nil
	default:
		if len(s.enum) > 0 && !slices.Contains(s.enum, value) {
			return nil, fmt.Errorf("invalid value %q for %s: must be one of %s", value, s.key, strings.Join(s.enum, ", "))
		}
		return value, nil
	}
}
