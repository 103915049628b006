package services

import (
	"strings"
	"time"
)

// parseDateTime accepts RFC3339 first, then a zoneless local form, matching
// what different clients send.
func parseDateTime(dateTimeStr string, errorToReturn error) (time.Time, error) {
	dateTimeStr = strings.TrimSpace(dateTimeStr)
	parsedTime, err := time.Parse(time.RFC3339, dateTimeStr)
	if err != nil {
		parsedTime, err = time.Parse("2006-01-02T15:04:05", dateTimeStr)
		if err != nil {
			return time.Time{}, errorToReturn
		}
	}
	return parsedTime, nil
}
