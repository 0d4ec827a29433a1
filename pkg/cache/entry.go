package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTTL is how long a durable entry is trusted after capture.
const DefaultTTL = time.Hour

// envelope is the stored form of an entry: {"d": payload, "ts": epoch millis}.
type envelope struct {
	D  json.RawMessage `json:"d"`
	TS *int64          `json:"ts"`
}

// Encode wraps payload with its capture time.
func Encode(payload any, now time.Time) ([]byte, error) {
	d, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode cache payload: %w", err)
	}
	ts := now.UnixMilli()
	return json.Marshal(envelope{D: d, TS: &ts})
}

// Decode unwraps an entry written by Encode. It reports false when the entry
// is malformed, older than ttl at now, or rejected by decode. A rejected
// entry is a miss, never an error.
func Decode[T any](data []byte, now time.Time, ttl time.Duration, decode func([]byte) (T, error)) (T, bool) {
	var zero T
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, false
	}
	if env.TS == nil || len(env.D) == 0 {
		return zero, false
	}
	if now.UnixMilli()-*env.TS > ttl.Milliseconds() {
		return zero, false
	}
	v, err := decode(env.D)
	if err != nil {
		return zero, false
	}
	return v, true
}
