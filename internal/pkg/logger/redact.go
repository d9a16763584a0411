package logger

import (
	"regexp"
	"strings"
)

// Vietnamese mobile/landline numbers: optional +84 or leading 0, then 8-10 digits.
var phoneRegex = regexp.MustCompile(`(\+?84|0)\d{8,10}`)

// RedactPhone masks a phone number, keeping only the last three digits.
// "0912345678" → "*******678"
func RedactPhone(phone string) string {
	if len(phone) <= 3 {
		return "***"
	}
	return strings.Repeat("*", len(phone)-3) + phone[len(phone)-3:]
}

func redactContactValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "phone") {
		return RedactPhone(val)
	}
	if strings.Contains(key, "address") || strings.Contains(key, "customer") {
		return "***"
	}
	// Mask any embedded phone numbers in generic fields
	return phoneRegex.ReplaceAllStringFunc(val, RedactPhone)
}
