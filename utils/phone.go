package utils

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// FormatPhoneNumber strips formatting and prefixes the Mali country code
// (+223) when missing.
func FormatPhoneNumber(phoneNumber string) string {
	digits := nonDigits.ReplaceAllString(phoneNumber, "")

	if len(digits) > 0 && !strings.HasPrefix(digits, "223") {
		digits = strings.TrimLeft(digits, "0")
		digits = "223" + digits
	}

	return digits
}

// ValidatePhoneNumber checks a local Malian subscriber number: 8 digits
// starting with a valid operator prefix (2 fixed, 5/6/7/9 mobile).
func ValidatePhoneNumber(phoneNumber string) bool {
	cleaned := nonDigits.ReplaceAllString(phoneNumber, "")
	cleaned = strings.TrimPrefix(cleaned, "223")

	if len(cleaned) != 8 {
		return false
	}

	switch cleaned[0] {
	case '2', '5', '6', '7', '9':
		return true
	}
	return false
}

// NormalizePhoneNumber normalizes a phone number for database storage.
func NormalizePhoneNumber(phoneNumber string) string {
	return FormatPhoneNumber(phoneNumber)
}

// DisplayPhoneNumber formats a stored number as +223 XX XX XX XX.
func DisplayPhoneNumber(phoneNumber string) string {
	formatted := FormatPhoneNumber(phoneNumber)
	if len(formatted) == 11 && strings.HasPrefix(formatted, "223") {
		return "+" + formatted[:3] + " " + formatted[3:5] + " " + formatted[5:7] + " " + formatted[7:9] + " " + formatted[9:11]
	}
	return phoneNumber
}
