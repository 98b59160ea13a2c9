package vectorsync

import "time"

// Metadata values must be scalar for the vector store's filter engine.
// Absent references become zero values rather than nulls so equality
// filters behave predictably.

func metaFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func metaInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func metaTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

// sanitizeMetadata normalizes a metadata map in place: nil numerics to 0,
// nil strings to "", and drops non-scalar values outright.
func sanitizeMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string, bool, int, int32, int64, float32, float64:
			out[k] = v
		case *int64:
			out[k] = metaInt(t)
		case *float64:
			out[k] = metaFloat(t)
		case *time.Time:
			out[k] = metaTime(t)
		case time.Time:
			out[k] = t.UTC().Format(time.RFC3339)
		}
	}
	return out
}
