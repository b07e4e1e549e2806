// Package sanitize strips markup from contact fields before they are stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
)

// plainText removes all markup.
var plainText = bluemonday.StrictPolicy()

// richText keeps a few inline elements in notes. Links keep their href and nothing else.
var richText = newRichTextPolicy()

func newRichTextPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "i", "em", "strong")
	policy.AllowAttrs("href").OnElements("a")
	policy.RequireParseableURLs(true)
	policy.AllowRelativeURLs(true)
	policy.AllowURLSchemes("http", "https", "ftp", "mailto", "tel")
	return policy
}

// Contact returns a copy of the form with every field trimmed and stripped of disallowed markup.
// It must only be applied to forms that passed validation. Applying it twice yields the same
// result as applying it once.
func Contact(form model.Form) model.Form {
	return model.Form{
		FirstName:    PlainText(form.FirstName),
		LastName:     PlainText(form.LastName),
		EmailAddress: PlainText(form.EmailAddress),
		Notes:        RichText(form.Notes),
	}
}

// PlainText trims s and removes all markup.
func PlainText(s string) string {
	return clean(plainText, s)
}

// RichText trims s and removes all markup except b, i, em, strong and a with href.
func RichText(s string) string {
	return clean(richText, s)
}

// Removing a tag can expose whitespace at the edges, hence the second trim.
func clean(policy *bluemonday.Policy, s string) string {
	return strings.TrimSpace(policy.Sanitize(strings.TrimSpace(s)))
}
