package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameAccepts(t *testing.T) {
	cases := map[string]string{
		"Bruce Schneier":         "Bruce Schneier",
		"Schneier, Bruce":        "Schneier, Bruce",
		"Schneier, Bruce Wayne":  "Schneier, Bruce Wayne",
		"O’Malley, John F.":      "O’Malley, John F.",
		"John O’Malley-Smith":    "John O’Malley-Smith",
		"Cher":                   "Cher",
		"O'Brien, Pat":           "O'Brien, Pat",
		"  Bruce \t  Schneier  ": "Bruce Schneier",
		"Jean-Luc Picard":        "Jean-Luc Picard",
		"Armstrong, Neil":        "Armstrong, Neil",
	}
	for input, want := range cases {
		got, err := Name(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}
}

func TestNameRejects(t *testing.T) {
	cases := map[string]string{
		"Ron O’’Henry":                  "multiple special characters in a word",
		"Ron O’Henry-Smith-Barnes":      "multiple special characters in a word",
		"L33t Hacker":                   "contains invalid characters",
		`<Script>alert("XSS")</Script>`: "contains prohibited substrings",
		"<Script>alert(1)</Script>":     "contains prohibited substrings",
		"Brad Everett Samuel Smith":     "exceeds maximum number of words (3)",
		"select * from users;":          "contains invalid characters",
		"string":                        "contains prohibited substrings",
		"Johnstring Smith":              "contains prohibited substrings",
		"":                              "name is required",
		"   ":                           "name is required",
		"Smith,, John":                  "multiple special characters in a word",
	}
	for input, reason := range cases {
		_, err := Name(input)
		require.Error(t, err, "input %q", input)
		assert.ErrorIs(t, err, ErrInvalid)

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, FieldName, verr.Field)
		assert.Equal(t, reason, verr.Reason, "input %q", input)
	}
}

func TestPhoneAccepts(t *testing.T) {
	for _, input := range []string{
		"12345",
		"(703)111-2121",
		"123-1234",
		"+1(703)111-2121",
		"+32 (21) 212-2324",
		"1(703)123-1234",
		"011 701 111 1234",
		"12345.12345",
		"011 1 703 111 1234",
		"703-111-2121",
		"703.111.2121",
	} {
		got, err := Phone(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, input, got)
	}
}

func TestPhoneReturnsTrimmedOriginal(t *testing.T) {
	got, err := Phone("  (703)111-2121 ")
	require.NoError(t, err)
	assert.Equal(t, "(703)111-2121", got)
}

func TestPhoneRejects(t *testing.T) {
	cases := map[string]string{
		"123":                           "invalid phone number format",
		"1/703/123/1234":                "contains disallowed characters",
		"Nr 102-123-1234":               "contains alphabetic characters",
		`<script>alert("XSS")</script>`: "contains script tags",
		"7031111234":                    "unformatted 10-digit sequence",
		"+1234 (201) 123-1234":          "invalid phone number format",
		"(001) 123-1234":                "invalid phone number format",
		"+01 (703) 123-1234":            "invalid phone number format",
		"(703) 123-1234 ext 204":        "contains alphabetic characters",
		"(703) 123-1234 x204":           "contains alphabetic characters",
		"":                              "invalid phone number format",
		"(703)111-2121#":                "contains disallowed characters",
	}
	for input, reason := range cases {
		_, err := Phone(input)
		require.Error(t, err, "input %q", input)

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, FieldPhone, verr.Field)
		assert.Equal(t, reason, verr.Reason, "input %q", input)
	}
}

func TestPhoneDigitsAndSpacesAreASCII(t *testing.T) {
	for _, input := range []string{
		"12345\v12345",
		"12345\u00a012345",
		"\u0661\u0662\u0663\u0664\u0665",
		"\uff11\uff12\uff13\uff14\uff15",
	} {
		_, err := Phone(input)
		var verr *Error
		require.True(t, errors.As(err, &verr), "input %q", input)
		assert.Equal(t, "contains disallowed characters", verr.Reason, "input %q", input)
	}
}

func TestReservedCountryCode(t *testing.T) {
	assert.True(t, reservedCountryCode("+01 (703) 123-1234"))
	assert.True(t, reservedCountryCode("+01"))
	assert.False(t, reservedCountryCode("+012 703 123-1234"))
	assert.False(t, reservedCountryCode("+32 (21) 212-2324"))
}

func TestValidationIsDeterministic(t *testing.T) {
	var v Validator = Rules{}
	for _, input := range []string{"Bruce Schneier", "L33t Hacker", "O’Malley, John F."} {
		first, firstErr := v.Name(input)
		for i := 0; i < 5; i++ {
			again, err := v.Name(input)
			assert.Equal(t, first, again)
			assert.Equal(t, firstErr == nil, err == nil)
		}
	}
	for _, input := range []string{"(703)111-2121", "7031111234", "+1(703)111-2121"} {
		first, firstErr := v.Phone(input)
		for i := 0; i < 5; i++ {
			again, err := v.Phone(input)
			assert.Equal(t, first, again)
			assert.Equal(t, firstErr == nil, err == nil)
		}
	}
}
