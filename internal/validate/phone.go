package validate

import (
	"regexp"
	"strings"
)

var (
	scriptTag     = regexp.MustCompile(`(?i)<\s*script.*?>`)
	alphabetic    = regexp.MustCompile(`[A-Za-z]`)
	disallowed    = regexp.MustCompile(`[^\d\s\-.+()]`)
	extension     = regexp.MustCompile(`(?i)(ext|x|extension)`)
	bareTenDigits = regexp.MustCompile(`^\d{10}$`)
	parenArea     = regexp.MustCompile(`\((\d{3})\)`)
	plusCountry   = regexp.MustCompile(`^\+(\d{1,3})`)
)

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{5}$`),
	regexp.MustCompile(`^\d{3}-\d{4}$`),
	regexp.MustCompile(`^\(?[2-9]\d{2}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`),
	regexp.MustCompile(`^(?:\+1\s?|1\s?|011\s\d{1,3}\s?)\(?\d{2,3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`),
	regexp.MustCompile(`^\d{5}[-.\s]?\d{5}$`),
}

// internationalPlus is checked apart from phonePatterns because a leading
// standalone "01" country code must not match it.
var internationalPlus = regexp.MustCompile(`^\+\d{1,3}\s?\(?\d{2,3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)

// Phone validates a phone number and returns it trimmed but otherwise as
// given. Separated forms are required: a bare run of ten digits is rejected,
// as are extensions. Digits and separators are ASCII only.
//
// Accepted forms: 12345, 123-1234, (703)111-2121, +1(703)111-2121,
// 1(703)123-1234, 011 701 111 1234, +32 (21) 212-2324, 12345.12345.
func Phone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)

	switch {
	case scriptTag.MatchString(phone):
		return "", reject(FieldPhone, "contains script tags")
	case alphabetic.MatchString(phone):
		return "", reject(FieldPhone, "contains alphabetic characters")
	case disallowed.MatchString(phone):
		return "", reject(FieldPhone, "contains disallowed characters")
	case extension.MatchString(phone):
		return "", reject(FieldPhone, "contains extension")
	case bareTenDigits.MatchString(phone):
		return "", reject(FieldPhone, "unformatted 10-digit sequence")
	}

	if !matchesPhonePattern(phone) {
		return "", reject(FieldPhone, "invalid phone number format")
	}

	if strings.HasPrefix(phone, "(") {
		if m := parenArea.FindStringSubmatch(phone); m != nil {
			area := m[1]
			if area[0] == '0' || area[0] == '1' {
				return "", reject(FieldPhone, "area code cannot start with '0' or '1'")
			}
			if area == "000" || area == "001" {
				return "", reject(FieldPhone, "contains invalid area code")
			}
		}
	}
	if strings.HasPrefix(phone, "+") {
		if m := plusCountry.FindStringSubmatch(phone); m != nil && m[1] == "01" {
			return "", reject(FieldPhone, "country code cannot be '01'")
		}
	}
	return phone, nil
}

func matchesPhonePattern(phone string) bool {
	for _, p := range phonePatterns {
		if p.MatchString(phone) {
			return true
		}
	}
	return internationalPlus.MatchString(phone) && !reservedCountryCode(phone)
}

// reservedCountryCode reports whether a "+" number opens with the standalone
// country code 01.
func reservedCountryCode(phone string) bool {
	rest := strings.TrimPrefix(phone, "+")
	if !strings.HasPrefix(rest, "01") {
		return false
	}
	return len(rest) == 2 || !isWordByte(rest[2])
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
