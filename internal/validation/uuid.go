package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

/* ValidateUUID validates a UUID string format */
func ValidateUUID(s, fieldName string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	s = strings.ToLower(strings.TrimSpace(s))
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("%s has invalid UUID format: %w", fieldName, err)
	}

	return nil
}
