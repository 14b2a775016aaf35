package user

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var (
	upperRe  = regexp.MustCompile(`[A-Z]`)
	lowerRe  = regexp.MustCompile(`[a-z]`)
	numberRe = regexp.MustCompile(`[0-9]`)
	symbolRe = regexp.MustCompile(`[\W_]`)
	digitsRe = regexp.MustCompile(`\D`)
)

// Dominican Republic area codes.
var areaCodes = map[string]bool{"809": true, "829": true, "849": true}

// VerifyPasswordComplexity checks that the password meets complexity requirements.
func VerifyPasswordComplexity(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if !upperRe.MatchString(pw) {
		return fmt.Errorf("password must include at least one uppercase letter")
	}
	if !lowerRe.MatchString(pw) {
		return fmt.Errorf("password must include at least one lowercase letter")
	}
	if !numberRe.MatchString(pw) {
		return fmt.Errorf("password must include at least one number")
	}
	if !symbolRe.MatchString(pw) {
		return fmt.Errorf("password must include at least one symbol")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email address")
	}
	return email, nil
}

// NormalizePhone accepts 809/829/849 numbers with optional +1 and separators
// and returns the ten digits.
func NormalizePhone(raw string) (string, error) {
	digits := digitsRe.ReplaceAllString(raw, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 || !areaCodes[digits[:3]] {
		return "", fmt.Errorf("phone must be a Dominican number (809, 829 or 849)")
	}
	return digits, nil
}
