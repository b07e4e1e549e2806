// Package model holds the JSON representation of a contact for clients of the contacts service.
package model

import "time"

// Contact is a contact as the service returns it to JSON clients.
type Contact struct {
	Id           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	EmailAddress string    `json:"emailAddress"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ContactRequest is the body of a create or update request.
// All fields with the exception of the names are optional.
type ContactRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Notes        string `json:"notes,omitempty"`
}
