package utils

import (
	"strconv"
	"strings"
)

// Int64ToStr converts an int64 id to its decimal string form.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NormalizePhone strips every non-digit rune so phone numbers compare by
// digits only: "+7 (701) 234-56-78" and "77012345678" normalize equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
