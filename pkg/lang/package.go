package lang

import (
	"errors"
	"fmt"

	"github.com/lab47/exprcore/exprcore"
)

var (
	ErrNotString = errors.New("value not a string")
	ErrNotList   = errors.New("value not a list")
)

// Helpers to pull typed attrs off an evaluated prototype. They're
// written to wrap proto.Attr directly, so a missing attr reads as the
// zero value rather than an error.

func StringValue(v exprcore.Value, err error) (string, error) {
	if err != nil {
		if _, ok := err.(exprcore.NoSuchAttrError); ok {
			return "", nil
		}
		return "", err
	}

	if v == nil {
		return "", nil
	}

	str, ok := v.(exprcore.String)
	if !ok {
		return "", ErrNotString
	}

	return string(str), nil
}

func ListValue(v exprcore.Value, err error) (*exprcore.List, error) {
	if err != nil {
		if _, ok := err.(exprcore.NoSuchAttrError); ok {
			return nil, nil
		}
		return nil, err
	}

	if v == nil {
		return nil, nil
	}

	list, ok := v.(*exprcore.List)
	if !ok {
		return nil, ErrNotList
	}

	return list, nil
}

// StringListValue reads a list attr whose elements must all be
// strings.
func StringListValue(v exprcore.Value, err error) ([]string, error) {
	list, err := ListValue(v, err)
	if err != nil {
		return nil, err
	}

	if list == nil {
		return nil, nil
	}

	var out []string

	iter := list.Iterate()
	defer iter.Done()

	var x exprcore.Value
	for iter.Next(&x) {
		str, ok := x.(exprcore.String)
		if !ok {
			return nil, fmt.Errorf("list entries must be strings, got a %T", x)
		}

		out = append(out, string(str))
	}

	return out, nil
}

// StringMapValue reads a dict attr, stringifying keys and values.
// Non-mapping values read as nil.
func StringMapValue(v exprcore.Value, err error) (map[string]string, error) {
	if err != nil {
		if _, ok := err.(exprcore.NoSuchAttrError); ok {
			return nil, nil
		}
		return nil, err
	}

	m, ok := v.(exprcore.IterableMapping)
	if !ok {
		return nil, nil
	}

	out := map[string]string{}

	for _, items := range m.Items() {
		out[RawString(items[0])] = RawString(items[1])
	}

	return out, nil
}

// RawString returns the unquoted form of a string value, or the
// printed form of anything else.
func RawString(val exprcore.Value) string {
	switch v := val.(type) {
	case exprcore.String:
		return string(v)
	default:
		return v.String()
	}
}
