package logging

import "strings"

// redactedKeys are field names whose values never reach the log sink.
// Covers credential material and the customer-facing PII that upstream
// records can carry.
var redactedKeys = map[string]struct{}{
	"access_token":     {},
	"refresh_token":    {},
	"client_secret":    {},
	"client_id":        {},
	"st_app_key":       {},
	"app_key":          {},
	"authorization":    {},
	"password":         {},
	"token":            {},
	"secret":           {},
	"api_key":          {},
	"bearer":           {},
	"customer_name":    {},
	"customer_email":   {},
	"customer_phone":   {},
	"customer_address": {},
	"email":            {},
	"phone":            {},
	"address":          {},
	"ssn":              {},
	"dob":              {},
}

const redactedPlaceholder = "[REDACTED]"

// redactValue replaces the value with a placeholder when the key is
// sensitive. Matching is case-insensitive on the full key name.
func redactValue(key string, value interface{}) interface{} {
	if _, ok := redactedKeys[strings.ToLower(key)]; ok {
		return redactedPlaceholder
	}
	return value
}

// IsRedactedKey reports whether values for the given field name are
// replaced before encoding.
func IsRedactedKey(key string) bool {
	_, ok := redactedKeys[strings.ToLower(key)]
	return ok
}
