package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyValue is returned when a numeric cell is blank
var ErrEmptyValue = errors.New("empty value")

// ErrNotNumeric is returned when a value cannot be read as a number
var ErrNotNumeric = errors.New("not a number")

// Value is one typed cell; Str is set for categorical columns, Num for numeric ones
type Value struct {
	Str string
	Num float64
}

// Row is one observation aligned to a Schema's column order
type Row []Value

// Key is a stable digest of the row contents
func (r Row) Key() string {
	h := sha256.New()
	for _, v := range r {
		h.Write([]byte(v.Str))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatFloat(v.Num, 'g', -1, 64)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeCategory renders any value as the category string used for encoding
func NormalizeCategory(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// ParseNumeric reads a number from a Go numeric type or its text form.
// Text accepts a decimal comma ("7,5") and grouped thousands ("20.000,50",
// "1,234.50"). When both marks appear the last one is the decimal mark. A
// single comma followed by exactly three digits ("20,000") is ambiguous and
// rejected with ErrNotNumeric.
func ParseNumeric(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, ErrEmptyValue
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, x.String())
		}
		f = parsed
	case string:
		parsed, err := parseNumericText(x)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrNotNumeric, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, f)
	}
	return f, nil
}

func parseNumericText(s string) (float64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, ErrEmptyValue
	}

	normalized, ok := normalizeSeparators(text)
	if !ok {
		return 0, fmt.Errorf("%w: ambiguous separators in %q", ErrNotNumeric, s)
	}

	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return f, nil
}

// normalizeSeparators rewrites text with '.' as the only decimal mark
func normalizeSeparators(text string) (string, bool) {
	dots := strings.Count(text, ".")
	commas := strings.Count(text, ",")

	switch {
	case commas == 0 && dots <= 1:
		return text, true
	case dots == 0 && commas == 1:
		if len(text)-strings.IndexByte(text, ',')-1 == 3 {
			return "", false
		}
		return strings.Replace(text, ",", ".", 1), true
	}

	intPart, frac := text, ""
	hasDecimal := false
	group := byte(',')
	switch {
	case dots > 0 && commas > 0:
		lastDot := strings.LastIndexByte(text, '.')
		lastComma := strings.LastIndexByte(text, ',')
		i, decimals := lastComma, commas
		if lastDot > lastComma {
			i, decimals = lastDot, dots
		} else {
			group = '.'
		}
		if decimals != 1 {
			return "", false
		}
		intPart, frac, hasDecimal = text[:i], text[i+1:], true
	case dots > 1:
		group = '.'
	}

	if !groupedByThree(intPart, group) {
		return "", false
	}
	digits := strings.ReplaceAll(intPart, string(group), "")
	if hasDecimal {
		return digits + "." + frac, true
	}
	return digits, true
}

// groupedByThree reports whether s is an optionally signed integer whose
// groups after the first have exactly three digits
func groupedByThree(s string, sep byte) bool {
	s = strings.TrimLeft(s, "+-")
	parts := strings.Split(s, string(sep))
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return false
		}
		if i == 0 && len(p) > 3 {
			return false
		}
		if i > 0 && len(p) != 3 {
			return false
		}
	}
	return true
}
