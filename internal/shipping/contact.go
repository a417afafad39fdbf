package shipping

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"checkout-service/internal/models"
)

var ErrInvalidContact = errors.New("invalid contact details")

var (
	nonASCII     = regexp.MustCompile(`[^\x01-\x7E]`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+-]+(\.[a-zA-Z0-9_+-]+)*@([a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]*\.)+[a-zA-Z]{2,}$`)
)

// ValidateEmail rejects full-width characters and malformed addresses
func ValidateEmail(email string) error {
	if nonASCII.MatchString(email) {
		return fmt.Errorf("%w: email must not contain full-width characters", ErrInvalidContact)
	}
	if email != "" && !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: email %q is not a valid address", ErrInvalidContact, email)
	}
	return nil
}

// ValidateContact checks the fields the flow requires
func (f Flow) ValidateContact(c models.ContactInfo) error {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.Address1 == "" {
		if f == FlowHomeDelivery {
			missing = append(missing, "address1")
		} else {
			missing = append(missing, "prefecture")
		}
	}
	if f == FlowPostalPickup && c.Address3 == "" {
		missing = append(missing, "post_office")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidContact, strings.Join(missing, ", "))
	}

	return ValidateEmail(c.Email)
}
