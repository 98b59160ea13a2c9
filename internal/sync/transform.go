package sync

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// NormalizeChoice turns a raw property value into an ordered JSON array.
// HubSpot serializes multi-select values three ways: a native JSON list, a
// ";"-delimited string, or a bare scalar. All of them land as an array so
// downstream consumers never branch on shape.
func NormalizeChoice(raw string) datatypes.JSON {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return datatypes.JSON([]byte("[]"))
	}

	if strings.HasPrefix(raw, "[") {
		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			out := make([]string, 0, len(list))
			for _, v := range list {
				s := strings.TrimSpace(toStringValue(v))
				if s != "" {
					out = append(out, s)
				}
			}
			return marshalChoice(out)
		}
	}

	if strings.Contains(raw, ";") {
		parts := strings.Split(raw, ";")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return marshalChoice(out)
	}

	return marshalChoice([]string{raw})
}

func marshalChoice(values []string) datatypes.JSON {
	b, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}

func toStringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

var sourceTimeLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseSourceTime reads a property timestamp: millisecond epoch or one of the
// ISO-ish layouts the API emits. Unparseable input maps to nil, never to an
// error, so one bad value cannot poison a record.
func ParseSourceTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if isAllDigits(raw) {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			t := time.UnixMilli(ms).UTC()
			return &t
		}
	}

	for _, layout := range sourceTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// MillisToTime converts a millisecond epoch, treating zero as absent.
func MillisToTime(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

// ParseFloatPtr reads a decimal property value; empty or garbage maps to nil.
func ParseFloatPtr(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseIntPtr reads an integer property value; empty or garbage maps to nil.
// Values with a decimal point are truncated toward zero.
func ParseIntPtr(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &i
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	i := int64(f)
	return &i
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
