// Package repository implements the domain repository ports using SQLite.
package repository

import (
	"database/sql"
	"encoding/json"
)

// marshalMetadata encodes an open key-value bag as JSON text for storage.
// A nil map is stored as an empty object.
func marshalMetadata(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// unmarshalMetadata decodes stored JSON metadata, tolerating empty or
// malformed text.
func unmarshalMetadata(s string) map[string]string {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

// nullStrFromPtr converts an optional string to sql.NullString.
func nullStrFromPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// ptrFromNullStr converts sql.NullString back to an optional string.
func ptrFromNullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
