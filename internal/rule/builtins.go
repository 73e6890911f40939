package rule

import (
	"strconv"
	"strings"

	"go.starlark.net/starlark"
)

// predeclared returns the globals available to rule bodies. Kept deliberately
// narrow: rules transform one row into one value and nothing else.
func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"num": starlark.NewBuiltin("num", numBuiltin),
	}
}

// numBuiltin is a lenient numeric coercion for cell values: numbers pass
// through, numeric strings are parsed (currency symbols, commas and
// surrounding whitespace stripped), anything else yields 0.0. Rules use it
// to do arithmetic on spreadsheet cells without caring how the cell was
// formatted.
func numBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case starlark.Float:
		return val, nil
	case starlark.Int:
		f, _ := starlark.AsFloat(val)
		return starlark.Float(f), nil
	case starlark.Bool:
		if bool(val) {
			return starlark.Float(1), nil
		}
		return starlark.Float(0), nil
	case starlark.String:
		return starlark.Float(parseNumeric(string(val))), nil
	default:
		return starlark.Float(0), nil
	}
}

// parseNumeric extracts a float from a formatted cell value. Invalid input
// parses to 0 so rules degrade to blank-ish arithmetic instead of erroring.
func parseNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimLeft(s, "¥￥$€£ ")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
