package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeLayout is the textual format of all persisted timestamps. It is ISO-8601 in UTC with
// millisecond precision, so timestamps sort lexically in chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Contact is the data structure for a person that we know.
type Contact struct {
	Id           string    `json:"id"           db:"id"`
	FirstName    string    `json:"firstName"    db:"firstname"`
	LastName     string    `json:"lastName"     db:"lastname"`
	EmailAddress string    `json:"emailAddress" db:"emailaddress"`
	Notes        string    `json:"notes"        db:"notes"`
	CreatedAt    Timestamp `json:"createdAt"    db:"createdat"`
	UpdatedAt    Timestamp `json:"updatedAt"    db:"updatedat"`
}

// Form holds the user supplied values of a contact as they arrive in a create or update request.
type Form struct {
	FirstName    string `form:"firstName"    json:"firstName"`
	LastName     string `form:"lastName"     json:"lastName"`
	EmailAddress string `form:"emailAddress" json:"emailAddress"`
	Notes        string `form:"notes"        json:"notes"`
}

// Form returns the editable fields of the contact.
func (c Contact) Form() Form {
	return Form{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		EmailAddress: c.EmailAddress,
		Notes:        c.Notes,
	}
}

// Timestamp is a point in time that is stored as text in TimeLayout.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to UTC and drops everything below millisecond precision, which is what
// survives a round trip through the database.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// ParseTimestamp parses a string in TimeLayout.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return NewTimestamp(t), nil
}

// String formats the timestamp in TimeLayout.
func (t Timestamp) String() string {
	return t.Time.UTC().Format(TimeLayout)
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Timestamp{}
		return nil
	case string:
		return t.parseInto(v)
	case []byte:
		return t.parseInto(string(v))
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", src)
	}
}

func (t *Timestamp) parseInto(s string) error {
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timestamp) UnmarshalText(text []byte) error {
	return t.parseInto(string(text))
}

// MarshalJSON overrides the promoted time.Time method so that JSON uses TimeLayout as well.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON overrides the promoted time.Time method.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid timestamp JSON %s", data)
	}
	return t.parseInto(string(data[1 : len(data)-1]))
}
