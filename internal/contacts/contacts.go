// Package contacts implements the operations on contacts: validation and sanitization of the
// submitted values, id and timestamp assignment, and the calls to the record store.
package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
	"gitlab.com/dirk.krummacker/contactbook/internal/sanitize"
	"gitlab.com/dirk.krummacker/contactbook/internal/store"
	"gitlab.com/dirk.krummacker/contactbook/internal/validation"
)

// ErrNotFound is returned when no contact has the requested id.
var ErrNotFound = store.ErrNotFound

// ErrInvalidRequest is returned when a request lacks the contact id. The store is not consulted.
var ErrInvalidRequest = errors.New("invalid contact id")

// Store is the record store the service persists contacts in. GetByID, UpdateByID and DeleteByID
// report a missing contact with ErrNotFound.
type Store interface {
	GetAll(ctx context.Context) ([]model.Contact, error)
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	Insert(ctx context.Context, contact *model.Contact) error
	UpdateByID(ctx context.Context, contact *model.Contact) error
	DeleteByID(ctx context.Context, id string) error
}

// Service offers the contact operations.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the generator of contact ids. Generated ids must be globally unique.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService returns a service that keeps its contacts in the given store. Ids are random UUIDs.
func NewService(records Store, opts ...Option) *Service {
	s := &Service{
		store: records,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all contacts.
func (s *Service) List(ctx context.Context) ([]model.Contact, error) {
	return s.store.GetAll(ctx)
}

// Get returns the contact with the given id.
func (s *Service) Get(ctx context.Context, id string) (*model.Contact, error) {
	if isBlank(id) {
		return nil, ErrInvalidRequest
	}
	return s.store.GetByID(ctx, id)
}

// Create validates and sanitizes the form and stores it as a new contact. A form that fails
// validation yields a *validation.Error and nothing is stored.
func (s *Service) Create(ctx context.Context, form model.Form) (*model.Contact, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}
	clean := sanitize.Contact(form)
	now := model.NewTimestamp(s.now())
	contact := &model.Contact{
		Id:           s.newID(),
		FirstName:    clean.FirstName,
		LastName:     clean.LastName,
		EmailAddress: clean.EmailAddress,
		Notes:        clean.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Update validates and sanitizes the form and overwrites the contact with the given id. The id and
// the creation timestamp are kept. The update timestamp always moves forward, even if the clock
// did not advance since the previous write.
func (s *Service) Update(ctx context.Context, id string, form model.Form) (*model.Contact, error) {
	if isBlank(id) {
		return nil, ErrInvalidRequest
	}
	if err := validation.Validate(form); err != nil {
		return nil, err
	}
	clean := sanitize.Contact(form)
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *existing
	updated.FirstName = clean.FirstName
	updated.LastName = clean.LastName
	updated.EmailAddress = clean.EmailAddress
	updated.Notes = clean.Notes
	updated.UpdatedAt = s.nextUpdate(existing.UpdatedAt)
	if err := s.store.UpdateByID(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the contact with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if isBlank(id) {
		return ErrInvalidRequest
	}
	return s.store.DeleteByID(ctx, id)
}

// nextUpdate returns the current time, or one millisecond after previous if the clock lags behind.
func (s *Service) nextUpdate(previous model.Timestamp) model.Timestamp {
	now := model.NewTimestamp(s.now())
	if !now.After(previous.Time) {
		return model.NewTimestamp(previous.Add(time.Millisecond))
	}
	return now
}

func isBlank(id string) bool {
	return strings.TrimSpace(id) == ""
}
