package isp

import (
	"fmt"
	"math"
)

// Options holds a stage's key/value configuration. Values are whatever the
// descriptor source produced: Go literals, or YAML-decoded scalars and lists.
type Options map[string]any

// String returns the string option key, or def when unset.
func (o Options) String(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &OptionError{Option: key, Err: fmt.Errorf("expected string, got %T", v)}
	}
	return s, nil
}

// Bool returns the boolean option key, or def when unset.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &OptionError{Option: key, Err: fmt.Errorf("expected bool, got %T", v)}
	}
	return b, nil
}

// Int returns the integer option key, or def when unset. Whole floats are
// accepted since JSON-ish sources decode numbers that way.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, &OptionError{Option: key, Err: fmt.Errorf("expected integer, got %v (%T)", v, v)}
}

// Strings returns the string-list option key, or def when unset. A single
// string is treated as a one-element list.
func (o Options) Strings(key string, def []string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch list := v.(type) {
	case string:
		return []string{list}, nil
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &OptionError{Option: key, Err: fmt.Errorf("item %d: expected string, got %T", i, item)}
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, &OptionError{Option: key, Err: fmt.Errorf("expected list of strings, got %T", v)}
}

func (o Options) clone() Options {
	if o == nil {
		return Options{}
	}
	c := make(Options, len(o))
	for k, v := range o {
		switch list := v.(type) {
		case []string:
			c[k] = append([]string(nil), list...)
		case []any:
			c[k] = append([]any(nil), list...)
		default:
			c[k] = v
		}
	}
	return c
}
