package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrymomot/saaskit/pkg/validator"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
	maxEmailLen    = 254
	maxNameLen     = 100
)

func emailRules(email string) []validator.Rule {
	return []validator.Rule{
		validator.Required("email", email),
		validator.MaxLen("email", email, maxEmailLen),
		mail.AddressRule("email", email),
	}
}

func passwordRules(field, password string) []validator.Rule {
	return []validator.Rule{
		validator.Required(field, password),
		validator.MinLen(field, password, minPasswordLen),
		validator.MaxLen(field, password, maxPasswordLen),
	}
}

func nameRules(name *string) []validator.Rule {
	if name == nil {
		return nil
	}
	return []validator.Rule{validator.MaxLen("name", *name, maxNameLen)}
}

// validate applies rules and writes a 400 listing the first failure per
// field. It reports whether the request may proceed.
func validate(w http.ResponseWriter, rules ...[]validator.Rule) bool {
	var all []validator.Rule
	for _, r := range rules {
		all = append(all, r...)
	}

	errs := validator.ExtractValidationErrors(validator.Apply(all...))
	if errs.IsEmpty() {
		return true
	}

	msgs := make([]string, 0, len(errs))
	for _, field := range errs.Fields() {
		msgs = append(msgs, field+": "+errs.Get(field)[0])
	}
	writeError(w, http.StatusBadRequest, strings.Join(msgs, "; "))
	return false
}
