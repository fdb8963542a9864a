package schema

import (
	"math"
	"reflect"
	"regexp"
	"time"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (s *Schema) normalize(f *field, value any) (any, error) {
	spec := f.spec
	if value == nil {
		if f.allowNone {
			return nil, nil
		}
		return nil, reject(spec.Name, value, "empty value is not allowed")
	}

	tag := spec.Kind.Tag()
	is := func(ancestor Tag) bool { return s.kinds.IsA(tag, ancestor) }

	var (
		out any
		err error
	)
	switch {
	case is(TagBoolean):
		out, err = checkBool(spec, value)
	case is(TagDate):
		out, err = checkDate(spec, value)
	case is(TagInteger):
		out, err = checkInteger(spec, value)
	case is(TagNumber):
		out, err = checkNumber(spec, value)
	case is(TagColor):
		out, err = checkColor(spec, value)
	case is(TagString):
		out, err = checkString(spec, value)
	case is(TagDict):
		out, err = checkDict(spec, value)
	case is(TagList):
		out, err = checkList(spec, value)
	case is(TagRange):
		out, err = checkRange(spec, value)
	case is(TagTuple):
		out, err = checkTuple(spec, value)
	case is(TagListSelector):
		out, err = checkMulti(spec, value)
	case is(TagSelector):
		out, err = checkSingle(spec, value)
	case is(TagAction):
		out, err = checkAction(spec, value)
	default:
		out = value
	}
	if err != nil {
		return nil, err
	}
	if spec.Validate != nil {
		if verr := spec.Validate(out); verr != nil {
			return nil, &ValidationError{Field: spec.Name, Value: value, Err: verr}
		}
	}
	return out, nil
}

func checkBool(spec ParameterSpec, value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, reject(spec.Name, value, "expected a boolean, got %T", value)
	}
	return b, nil
}

func checkInteger(spec ParameterSpec, value any) (any, error) {
	n, err := exactInt(spec, value)
	if err != nil {
		return nil, err
	}
	f, _ := toFloat(value)
	if err := checkBounds(spec, value, f); err != nil {
		return nil, err
	}
	return n, nil
}

// exactInt converts value to int without passing integer inputs through
// float64. Floats must be integral and inside the int range.
func exactInt(spec ParameterSpec, value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int8:
		return int(typed), nil
	case int16:
		return int(typed), nil
	case int32:
		return int(typed), nil
	case int64:
		if typed < math.MinInt || typed > math.MaxInt {
			return 0, reject(spec.Name, value, "integer out of range")
		}
		return int(typed), nil
	case uint:
		if uint64(typed) > math.MaxInt {
			return 0, reject(spec.Name, value, "integer out of range")
		}
		return int(typed), nil
	case uint8:
		return int(typed), nil
	case uint16:
		return int(typed), nil
	case uint32:
		if uint64(typed) > math.MaxInt {
			return 0, reject(spec.Name, value, "integer out of range")
		}
		return int(typed), nil
	case uint64:
		if typed > math.MaxInt {
			return 0, reject(spec.Name, value, "integer out of range")
		}
		return int(typed), nil
	case float32, float64:
		f, _ := toFloat(value)
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, reject(spec.Name, value, "expected an integer")
		}
		// float64(math.MaxInt) rounds up past the int range.
		if f < math.MinInt || f >= math.MaxInt {
			return 0, reject(spec.Name, value, "integer out of range")
		}
		return int(f), nil
	}
	return 0, reject(spec.Name, value, "expected an integer, got %T", value)
}

func checkNumber(spec ParameterSpec, value any) (any, error) {
	f, ok := toFloat(value)
	if !ok {
		return nil, reject(spec.Name, value, "expected a number, got %T", value)
	}
	if math.IsNaN(f) {
		return nil, reject(spec.Name, value, "NaN is not allowed")
	}
	if err := checkBounds(spec, value, f); err != nil {
		return nil, err
	}
	switch value.(type) {
	case float32, float64:
		return f, nil
	}
	return value, nil
}

func checkBounds(spec ParameterSpec, value any, f float64) error {
	if lo, ok := toFloat(spec.Bounds.Min); ok {
		if f < lo || (spec.Bounds.ExclusiveMin && f == lo) {
			return reject(spec.Name, value, "below lower bound %v", spec.Bounds.Min)
		}
	}
	if hi, ok := toFloat(spec.Bounds.Max); ok {
		if f > hi || (spec.Bounds.ExclusiveMax && f == hi) {
			return reject(spec.Name, value, "above upper bound %v", spec.Bounds.Max)
		}
	}
	return nil
}

func checkDate(spec ParameterSpec, value any) (any, error) {
	var ts time.Time
	switch typed := value.(type) {
	case time.Time:
		ts = typed
	case string:
		parsed, err := parseDate(typed)
		if err != nil {
			return nil, reject(spec.Name, value, "expected a date: %v", err)
		}
		ts = parsed
	default:
		return nil, reject(spec.Name, value, "expected a date, got %T", value)
	}
	if lo, ok := spec.Bounds.Min.(time.Time); ok {
		if ts.Before(lo) || (spec.Bounds.ExclusiveMin && ts.Equal(lo)) {
			return nil, reject(spec.Name, value, "before %s", lo.Format(time.RFC3339))
		}
	}
	if hi, ok := spec.Bounds.Max.(time.Time); ok {
		if ts.After(hi) || (spec.Bounds.ExclusiveMax && ts.Equal(hi)) {
			return nil, reject(spec.Name, value, "after %s", hi.Format(time.RFC3339))
		}
	}
	return ts, nil
}

func parseDate(raw string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly}
	var lastErr error
	for _, layout := range layouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func checkString(spec ParameterSpec, value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, reject(spec.Name, value, "expected a string, got %T", value)
	}
	if spec.Pattern != "" {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, reject(spec.Name, value, "invalid pattern %q: %v", spec.Pattern, err)
		}
		if !re.MatchString(str) {
			return nil, reject(spec.Name, value, "does not match %q", spec.Pattern)
		}
	}
	return str, nil
}

func checkColor(spec ParameterSpec, value any) (any, error) {
	str, ok := value.(string)
	if !ok || !colorPattern.MatchString(str) {
		return nil, reject(spec.Name, value, "expected a #rrggbb colour")
	}
	return str, nil
}

func checkDict(spec ParameterSpec, value any) (any, error) {
	if typed, ok := value.(map[string]any); ok {
		return typed, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, reject(spec.Name, value, "expected a dictionary, got %T", value)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

func checkList(spec ParameterSpec, value any) (any, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, reject(spec.Name, value, "expected a list, got %T", value)
	}
	return items, nil
}

func checkTuple(spec ParameterSpec, value any) (any, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, reject(spec.Name, value, "expected a tuple, got %T", value)
	}
	if spec.Length > 0 && len(items) != spec.Length {
		return nil, reject(spec.Name, value, "expected %d items, got %d", spec.Length, len(items))
	}
	return items, nil
}

func checkRange(spec ParameterSpec, value any) (any, error) {
	items, ok := toSlice(value)
	if !ok || len(items) != 2 {
		return nil, reject(spec.Name, value, "expected a (start, end) pair")
	}
	out := make([]any, 2)
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return nil, reject(spec.Name, value, "range ends must be numeric")
		}
		if err := checkBounds(spec, value, f); err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}

func checkSingle(spec ParameterSpec, value any) (any, error) {
	if spec.Instantiate || len(spec.Options) == 0 {
		return value, nil
	}
	if !spec.Options.Contains(value) {
		return nil, reject(spec.Name, value, "not one of the available options")
	}
	return value, nil
}

func checkMulti(spec ParameterSpec, value any) (any, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, reject(spec.Name, value, "expected a list of options, got %T", value)
	}
	if spec.Instantiate || len(spec.Options) == 0 {
		return items, nil
	}
	for _, item := range items {
		if !spec.Options.Contains(item) {
			return nil, reject(spec.Name, value, "%v is not one of the available options", item)
		}
	}
	return items, nil
}

func checkAction(spec ParameterSpec, value any) (any, error) {
	switch value.(type) {
	case ActionFunc, func(*Schema) error:
		return value, nil
	}
	return nil, reject(spec.Name, value, "expected an action, got %T", value)
}

func toSlice(value any) ([]any, bool) {
	if typed, ok := value.([]any); ok {
		return append([]any(nil), typed...), true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(value any) (float64, bool) {
	return toFloat(value)
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}
