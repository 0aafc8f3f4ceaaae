package core

import (
	"time"
)

// Timestamp is a UTC wall-clock time recorded on estimates, curves and
// manifests. It never enters a fingerprint.
type Timestamp time.Time

// Now returns the current time in UTC
func Now() Timestamp {
	return Timestamp(time.Now().UTC())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// String formats the timestamp as RFC 3339 with nanoseconds
func (t Timestamp) String() string {
	return t.Time().UTC().Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.Time().UTC().MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var parsed time.Time
	if err := parsed.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}
