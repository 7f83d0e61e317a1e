// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC. All persisted timestamps and
// modifier window checks use UTC to avoid DST ambiguity.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// ISTNow returns the current time in Indian Standard Time. Used for
// operator-facing output like export filenames.
func ISTNow() (time.Time, error) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}
