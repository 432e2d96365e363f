// Package validation holds the field checks behind the /validate endpoints.
// Each validator returns every failed rule rather than stopping at the first.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxEmailLength     = 254
	maxEmailLocalPart  = 64
	minPasswordLength  = 8
	minUsernameLength  = 3
	maxUsernameLength  = 30
	passwordSpecialSet = `!@#$%^&*(),.?":{}|<>`
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]*>`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Messages returned by the validators. Clients match on these strings.
const (
	MsgEmailRequired     = "Email address is required."
	MsgEmailInvalid      = "Invalid email format."
	MsgEmailTooLong      = "Email address is too long (max 254 characters)."
	MsgEmailLocalTooLong = "Local part of email is too long (max 64 characters)."
	MsgPasswordTooShort  = "Password must be at least 8 characters long."
	MsgPasswordUpper     = "Password must contain at least one uppercase letter."
	MsgPasswordLower     = "Password must contain at least one lowercase letter."
	MsgPasswordDigit     = "Password must contain at least one digit."
	MsgPasswordSpecial   = "Password must contain at least one special character."
	MsgUsernameRequired  = "Username is required."
	MsgUsernameTooShort  = "Username must be at least 3 characters long."
	MsgUsernameTooLong   = "Username must be at most 30 characters long."
	MsgUsernameCharset   = "Username may only contain letters, digits, and underscores."
	MsgUsernameLeadDigit = "Username must not start with a number."
)

// Email checks address format and length limits.
func Email(email string) (bool, []string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, []string{MsgEmailRequired}
	}

	errs := []string{}
	if !emailPattern.MatchString(email) {
		errs = append(errs, MsgEmailInvalid)
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		errs = append(errs, MsgEmailTooLong)
	}
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	if utf8.RuneCountInString(local) > maxEmailLocalPart {
		errs = append(errs, MsgEmailLocalTooLong)
	}
	return len(errs) == 0, errs
}

// Password checks length and character-class requirements.
func Password(password string) (bool, []string) {
	errs := []string{}
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		errs = append(errs, MsgPasswordUpper)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		errs = append(errs, MsgPasswordLower)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		errs = append(errs, MsgPasswordDigit)
	}
	if !strings.ContainsAny(password, passwordSpecialSet) {
		errs = append(errs, MsgPasswordSpecial)
	}
	return len(errs) == 0, errs
}

// Username checks length, charset and that the name does not lead with a digit.
func Username(username string) (bool, []string) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, []string{MsgUsernameRequired}
	}

	errs := []string{}
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength {
		errs = append(errs, MsgUsernameTooShort)
	}
	if n > maxUsernameLength {
		errs = append(errs, MsgUsernameTooLong)
	}
	if !usernamePattern.MatchString(username) {
		errs = append(errs, MsgUsernameCharset)
	}
	if first, _ := utf8.DecodeRuneInString(username); unicode.IsDigit(first) {
		errs = append(errs, MsgUsernameLeadDigit)
	}
	return len(errs) == 0, errs
}

// Sanitize strips HTML tags, trims the result and collapses whitespace runs.
func Sanitize(text string) string {
	cleaned := htmlTagPattern.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(cleaned)
	return whitespaceRun.ReplaceAllString(cleaned, " ")
}
