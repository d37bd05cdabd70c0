package models

import (
	"time"
)

// TimestampModel provides the audit columns shared by mutable tables.
type TimestampModel struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// nullableString maps an empty string to SQL NULL
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString maps SQL NULL to an empty string
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
