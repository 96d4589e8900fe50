package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	branchCodePattern = regexp.MustCompile(`^[0-9]{3,5}$`)
	controlChars      = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateBranchCode validates a branch code (3 to 5 digits)
func ValidateBranchCode(code string) error {
	if !branchCodePattern.MatchString(code) {
		return fmt.Errorf("invalid branch code: %q", code)
	}
	return nil
}

// ValidateDateRange checks that from is not after to and the range is at most maxDays long
func ValidateDateRange(from, to time.Time, maxDays int) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("date range requires both ends")
	}
	if from.After(to) {
		return fmt.Errorf("start date %s is after end date %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	if maxDays > 0 && to.Sub(from) > time.Duration(maxDays)*24*time.Hour {
		return fmt.Errorf("date range exceeds %d days", maxDays)
	}
	return nil
}

// SanitizeString removes control characters (newlines and tabs are kept) and trims the result
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
