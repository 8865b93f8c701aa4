package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,13}$`)

/* ValidateEmail validates an email address */
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

/* ValidatePhone validates an optional phone number. Accepts 10 digit
   local numbers and international numbers with a country prefix. */
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(phone)
	if !phonePattern.MatchString(cleaned) {
		return fmt.Errorf("invalid phone number")
	}
	return nil
}

/* ValidateURL validates an optional http(s) URL */
func ValidateURL(raw, fieldName string) error {
	if raw == "" {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return fmt.Errorf("%s must be an http or https URL", fieldName)
	}
	return nil
}
