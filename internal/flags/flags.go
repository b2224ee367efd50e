// Package flags builds the optional command-line options passed to the
// external scripts.
package flags

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Flags represents script options as a key-value map.
// Values can be:
//   - string: generates --key=value
//   - bool: true generates --key, false omits the flag
//   - []string: generates --key=v for each element
type Flags map[string]any

// Sentinel errors for flag operations.
var (
	// ErrInvalidFlagValue is returned when a flag value has an unsupported type.
	ErrInvalidFlagValue = errors.New("invalid flag value type")

	// ErrInvalidFlagKey is returned for empty keys or keys that already
	// carry dashes.
	ErrInvalidFlagKey = errors.New("invalid flag key")
)

// FromConfig validates and normalizes config values into Flags.
// Accepts string, bool, numbers (rendered as strings), []string, and []any
// (converted to []string).
func FromConfig(cfg map[string]any) (Flags, error) {
	if cfg == nil {
		return make(Flags), nil
	}

	result := make(Flags, len(cfg))
	for k, v := range cfg {
		if err := validateKey(k); err != nil {
			return nil, err
		}

		switch val := v.(type) {
		case string, bool:
			result[k] = val
		case int, int64, float64:
			result[k] = fmt.Sprint(val)
		case []string:
			result[k] = val
		case []any:
			// Convert []any to []string (common from YAML parsing)
			strs := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: %s array contains non-string value %T", ErrInvalidFlagValue, k, item)
				}
				strs = append(strs, s)
			}
			result[k] = strs
		default:
			return nil, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidFlagValue, k, v)
		}
	}
	return result, nil
}

// FromPairs parses "key=value" pairs as given on the command line.
//
// Rules:
//   - "key=value" → string value
//   - "key=true" or "key=false" → bool value
//   - "key" (bare, no =) → bool true
//   - Repeated keys become []string (e.g., "lang=eng lang=deu" → {"lang": ["eng", "deu"]})
//   - Values containing = are handled correctly (splits on first = only)
func FromPairs(pairs []string) (Flags, error) {
	result := make(Flags)

	for _, pair := range pairs {
		key, value, hasEquals := strings.Cut(pair, "=")
		if err := validateKey(key); err != nil {
			return nil, err
		}

		if !hasEquals {
			result[key] = true
			continue
		}

		switch strings.ToLower(value) {
		case "true":
			result[key] = true
			continue
		case "false":
			result[key] = false
			continue
		}

		if existing, ok := result[key]; ok {
			switch e := existing.(type) {
			case string:
				result[key] = []string{e, value}
			case []string:
				result[key] = append(e, value)
			default:
				// Overwrite non-string values (e.g., bool) with the new string
				result[key] = value
			}
		} else {
			result[key] = value
		}
	}
	return result, nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidFlagKey)
	}
	if strings.HasPrefix(key, "-") {
		return fmt.Errorf("%w: %q should be given without leading dashes", ErrInvalidFlagKey, key)
	}
	return nil
}

// Merge combines Flags maps in order, later maps taking precedence.
func Merge(layers ...Flags) Flags {
	result := make(Flags)
	for _, layer := range layers {
		for k, v := range layer {
			result[k] = v
		}
	}
	return result
}

// ToArgs reconstructs Flags into CLI arguments.
// Output is sorted by key for deterministic ordering.
//
// Conversion rules:
//   - string: "--key=value"
//   - bool true: "--key"
//   - bool false: (omitted)
//   - []string: "--key=v1", "--key=v2", ...
func ToArgs(f Flags) []string {
	if len(f) == 0 {
		return nil
	}

	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		switch val := f[k].(type) {
		case string:
			args = append(args, fmt.Sprintf("--%s=%s", k, val))
		case bool:
			if val {
				args = append(args, "--"+k)
			}
		case []string:
			for _, s := range val {
				args = append(args, fmt.Sprintf("--%s=%s", k, s))
			}
		}
	}
	return args
}
