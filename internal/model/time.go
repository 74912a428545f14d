package model

import (
	"fmt"
	"strconv"
	"time"
)

// UnixTime is a time.Time that serializes to JSON as unix seconds.
// Event schedule fields use this wire format.
type UnixTime struct {
	time.Time
}

// NewUnixTime wraps a time.Time, truncating to second precision.
func NewUnixTime(t time.Time) UnixTime {
	return UnixTime{Time: t.Truncate(time.Second)}
}

// MarshalJSON implements json.Marshaler.
func (t UnixTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *UnixTime) UnmarshalJSON(data []byte) error {
	secs, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unix timestamp %q", string(data))
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}
