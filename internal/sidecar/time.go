package sidecar

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleTime is a timestamp that can unmarshal from the formats hook
// scripts actually write: epoch seconds, epoch milliseconds, or an
// RFC 3339 string. Different hook generations disagree on the format,
// so the reader accepts all of them.
type FlexibleTime struct {
	time.Time
}

// epochMillisCutoff separates epoch-second from epoch-millisecond
// values. Anything above it cannot be a plausible seconds timestamp.
const epochMillisCutoff = 1e11

// UnmarshalJSON implements json.Unmarshaler for FlexibleTime.
func (t *FlexibleTime) UnmarshalJSON(data []byte) error {
	// Try a numeric epoch first.
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if n >= epochMillisCutoff {
			t.Time = time.UnixMilli(int64(n))
		} else {
			t.Time = time.Unix(int64(n), 0)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("unrecognized timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	return fmt.Errorf("unrecognized timestamp %s", data)
}

// MarshalJSON implements json.Marshaler, emitting RFC 3339.
func (t FlexibleTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
