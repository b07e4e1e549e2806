// Package randomgen produces plausible contact data for tests and load generation. All names
// consist of letters only, so they pass validation.
package randomgen

import (
	"fmt"
	"math/rand"
	"strings"

	"gitlab.com/dirk.krummacker/contactbook/internal/model"
)

var firstNames = []string{
	"Adam", "Anna", "Berta", "Carla", "David", "Dirk", "Emil", "Erika", "Felix", "Greta",
	"Hans", "Ida", "Jakub", "Klara", "Lukas", "Marie", "Noah", "Olga", "Pavla", "Rudi",
}

var lastNames = []string{
	"Becker", "Dvorak", "Fischer", "Hoffmann", "Horak", "Krummacker", "Meyer", "Mustermann",
	"Novak", "Richter", "Schmidt", "Schulz", "Svoboda", "Wagner", "Weber", "Wolf",
}

var domains = []string{"example.com", "example.org", "mail.example.net"}

var notes = []string{
	"",
	"met at the <b>conference</b>",
	"prefers <em>email</em>",
	`see <a href="https://example.com">website</a>`,
	"<i>birthday</i> in spring",
}

// PickFirstName returns a random first name.
func PickFirstName() string {
	return firstNames[rand.Intn(len(firstNames))]
}

// PickLastName returns a random last name.
func PickLastName() string {
	return lastNames[rand.Intn(len(lastNames))]
}

// Letters returns a random string of n lowercase letters.
func Letters(n int) string {
	var builder strings.Builder
	for i := 0; i < n; i++ {
		builder.WriteByte(byte('a' + rand.Intn(26)))
	}
	return builder.String()
}

// Form returns a complete, valid contact form.
func Form() model.Form {
	first := PickFirstName()
	last := PickLastName()
	return model.Form{
		FirstName:    first,
		LastName:     last,
		EmailAddress: fmt.Sprintf("%s.%s@%s", strings.ToLower(first), strings.ToLower(last), domains[rand.Intn(len(domains))]),
		Notes:        notes[rand.Intn(len(notes))],
	}
}
