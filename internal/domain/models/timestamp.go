package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// storeTimeLayouts are the shapes PostgREST renders for timestamptz and for
// timestamp without time zone. Zone-less values are read as UTC.
var storeTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07",
}

// ParseStoreTime reads a timestamp column value. An empty string is the zero time.
func ParseStoreTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range storeTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// UnmarshalJSON accepts timestamps with or without a zone offset.
func (l *SaleLog) UnmarshalJSON(data []byte) error {
	type plain SaleLog
	aux := struct {
		*plain
		Timestamp *string `json:"timestamp"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Timestamp == nil {
		return nil
	}
	ts, err := ParseStoreTime(*aux.Timestamp)
	if err != nil {
		return fmt.Errorf("log %s: %w", l.ID, err)
	}
	l.Timestamp = ts
	return nil
}

// UnmarshalJSON accepts updated_at with or without a zone offset.
func (r *OrderStatusRecord) UnmarshalJSON(data []byte) error {
	type plain OrderStatusRecord
	aux := struct {
		*plain
		UpdatedAt *string `json:"updated_at"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.UpdatedAt == nil {
		return nil
	}
	ts, err := ParseStoreTime(*aux.UpdatedAt)
	if err != nil {
		return fmt.Errorf("order status %s: %w", r.LogID, err)
	}
	r.UpdatedAt = ts
	return nil
}
