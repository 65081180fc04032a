// Package phone reduces free-form phone values to the 10-digit key used to
// join call-tracking and sales reports.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Length is the number of digits in a normalized number.
const Length = 10

// DefaultRegion is used for display formatting when none is configured.
const DefaultRegion = "US"

var nonDigit = regexp.MustCompile(`[^0-9]`)

// Digits keeps only the ASCII digits of s.
func Digits(s string) string { return nonDigit.ReplaceAllString(s, "") }

// Normalize returns the last 10 digits of raw, or "" when raw carries fewer
// than 10 digits. A leading country code such as the 1 in "+1" falls off
// with the truncation. The result is never partial or padded.
func Normalize(raw string) string {
	d := Digits(raw)
	if len(d) < Length {
		return ""
	}
	return d[len(d)-Length:]
}

// IsNormalized reports whether s is exactly 10 ASCII digits.
func IsNormalized(s string) bool {
	return len(s) == Length && Digits(s) == s
}

// Format renders a normalized number in the national format of region,
// e.g. "(555) 123-4567". Values that do not parse come back unchanged.
func Format(n, region string) string {
	if n == "" {
		return ""
	}
	num, err := phonenumbers.Parse(n, regionOrDefault(region))
	if err != nil {
		return n
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL)
}

// Dialable reports whether n is a valid number for region according to the
// libphonenumber metadata. Absent numbers are never dialable.
func Dialable(n, region string) bool {
	if n == "" {
		return false
	}
	r := regionOrDefault(region)
	num, err := phonenumbers.Parse(n, r)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumberForRegion(num, r)
}

func regionOrDefault(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return DefaultRegion
	}
	return region
}
