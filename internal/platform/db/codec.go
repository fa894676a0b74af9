package db

import (
	"encoding/json"
	"time"
)

// Storage-form encoding shared by the relational columns, the in-memory
// store, and the sync change feed: booleans are 0/1 integers, list fields
// are JSON-encoded string blobs, and timestamps are RFC3339 strings.

func EncodeBool(b bool) int16 {
	if b {
		return 1
	}
	return 0
}

func DecodeBool(v int16) bool {
	return v != 0
}

func EncodeStringList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	blob, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(blob)
}

func DecodeStringList(blob string) []string {
	if blob == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func EncodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func DecodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
