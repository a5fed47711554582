// Package locale resolves the language of a beacon.
package locale

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Unknown is returned when no language can be determined.
const Unknown = "Unknown"

// ResolveLanguage returns the first entry of the Accept-Language header,
// else the language the client put in the payload, else Unknown.
// The header entry is kept as sent, quality suffix included.
func ResolveLanguage(acceptLanguage, payloadLanguage string) string {
	if acceptLanguage != "" {
		first, _, _ := strings.Cut(acceptLanguage, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if payloadLanguage = strings.TrimSpace(payloadLanguage); payloadLanguage != "" {
		return payloadLanguage
	}
	return Unknown
}

// DisplayName returns an English label for a stored language value such as
// "en-US" or "fr;q=0.9". Values that are not BCP 47 tags come back unchanged.
func DisplayName(value string) string {
	if value == "" || value == Unknown {
		return Unknown
	}
	raw, _, _ := strings.Cut(value, ";")
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return value
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return value
	}
	return name
}
