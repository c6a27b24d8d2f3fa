package mail

import (
	netmail "net/mail"

	"github.com/dmitrymomot/saaskit/pkg/validator"
)

// AddressRule is the single email rule used both for incoming requests and
// for every outgoing message: saaskit's ValidEmail, restricted to a bare
// address with no display name so the stored value is deliverable as-is.
func AddressRule(field, value string) validator.Rule {
	rule := validator.ValidEmail(field, value)
	valid := rule.Check
	rule.Check = func() bool {
		if !valid() {
			return false
		}
		addr, err := netmail.ParseAddress(value)
		return err == nil && addr.Address == value
	}
	return rule
}

func validAddress(value string) bool {
	return validator.Apply(AddressRule("email", value)) == nil
}
