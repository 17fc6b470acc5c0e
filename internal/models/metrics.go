package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Tag is a single key/value label attached to a metric.
type Tag struct {
	Key   string `json:"key"`   // Tag name.
	Value string `json:"value"` // Tag value with surrounding quotes removed.
}

// Tags keeps the labels of a metric in the order they appeared on the line.
type Tags []Tag

// Value implements driver.Valuer. Tags are stored as a JSON array so the
// insertion order survives the round trip through the queue.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	data, err := json.Marshal([]Tag(t))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported tags column type %T", src)
	}
	if len(data) == 0 {
		*t = Tags{}
		return nil
	}
	var tags []Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return errors.Join(errors.New("invalid tags column"), err)
	}
	*t = tags
	return nil
}

// Get returns the value of the first tag with the given key.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Metric is a single observation read from the ingest socket.
type Metric struct {
	ID        *int64  `json:"id,omitempty" db:"id"`        // Queue record id, nil until the metric is stored.
	Name      string  `json:"name" db:"name"`              // Metric name.
	Field     string  `json:"field,omitempty" db:"field"`  // Field key for influx style lines.
	Tags      Tags    `json:"tags" db:"tags"`              // Ordered tag set.
	Value     uint64  `json:"value" db:"value"`            // Counter value.
	Timestamp *uint64 `json:"timestamp,omitempty" db:"ts"` // Optional timestamp, unit defined by the producer.
}

// RecordID returns the queue record id or zero when the metric was never stored.
func (m *Metric) RecordID() int64 {
	if m == nil || m.ID == nil {
		return 0
	}
	return *m.ID
}
