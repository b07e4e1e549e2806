// Package validation decides whether a submitted contact form may be stored.
package validation

import (
	"regexp"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
)

// Rule identifies one field check that a form can fail.
type Rule string

const (
	RuleFirstName    Rule = "firstName"
	RuleLastName     Rule = "lastName"
	RuleEmailAddress Rule = "emailAddress"
)

// messagePrefix opens every aggregated validation message.
const messagePrefix = "Please correct the following issues:"

var clauses = map[Rule]string{
	RuleFirstName:    "First name should contain only letters.",
	RuleLastName:     "Last name should contain only letters.",
	RuleEmailAddress: "Email address should start with a lowercase letter and provide a valid email address.",
}

var (
	onlyLetters     = regexp.MustCompile(`^[A-Za-z]+$`)
	emailShape      = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	lowercaseLetter = regexp.MustCompile(`^[a-z]`)
)

// notBlank rejects values that consist of whitespace only. ozzo.Required alone accepts them.
var notBlank = ozzo.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return ozzo.ErrRequired
	}
	return nil
})

var nameRules = []ozzo.Rule{
	ozzo.Required,
	notBlank,
	ozzo.Match(onlyLetters),
}

// Empty addresses pass because ozzo.Match skips empty values.
var emailRules = []ozzo.Rule{
	ozzo.Match(emailShape),
	ozzo.Match(lowercaseLetter),
}

// Error reports the rules a form failed, in the order first name, last name, email address.
type Error struct {
	Failed []Rule
}

// Error joins the human readable clause of every failed rule.
func (e *Error) Error() string {
	var builder strings.Builder
	builder.WriteString(messagePrefix)
	for _, rule := range e.Failed {
		builder.WriteString(" ")
		builder.WriteString(clauses[rule])
	}
	return builder.String()
}

// Has reports whether rule is among the failed rules.
func (e *Error) Has(rule Rule) bool {
	for _, failed := range e.Failed {
		if failed == rule {
			return true
		}
	}
	return false
}

// Validate checks the raw values of a form. It returns nil if the form is acceptable and an *Error
// otherwise. The notes field is never rejected; it is only sanitized.
func Validate(form model.Form) error {
	checks := []struct {
		rule  Rule
		value string
		rules []ozzo.Rule
	}{
		{RuleFirstName, form.FirstName, nameRules},
		{RuleLastName, form.LastName, nameRules},
		{RuleEmailAddress, form.EmailAddress, emailRules},
	}
	var failed []Rule
	for _, check := range checks {
		if err := ozzo.Validate(check.value, check.rules...); err != nil {
			failed = append(failed, check.rule)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &Error{Failed: failed}
}
