package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrStorage wraps any failure of the contact store.
	ErrStorage = errors.New("contact storage failed")
	// ErrEmail wraps a failed confirmation or team notification dispatch.
	ErrEmail = errors.New("contact email dispatch failed")
	// ErrStorageNotConfigured is returned by read operations when no store is wired.
	ErrStorageNotConfigured = errors.New("contact storage is not configured")
)

// ContactRequest represents a contact form submission
type ContactRequest struct {
	FirstName   string `json:"firstName" validate:"required,single_line,max=100" example:"John"`
	LastName    string `json:"lastName" validate:"required,single_line,max=100" example:"Doe"`
	Email       string `json:"email" validate:"required,contact_email,max=255" example:"john@example.com"`
	ProjectType string `json:"projectType" validate:"required,single_line,max=100" example:"consulting"`
	Message     string `json:"message" validate:"required,min=10,max=5000" example:"I need help with my website redesign."`
}

// Normalize trims surrounding whitespace from every field.
func (r *ContactRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.ProjectType = strings.TrimSpace(r.ProjectType)
	r.Message = strings.TrimSpace(r.Message)
}

// FullName joins first and last name.
func (r *ContactRequest) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// StoredContact is a persisted contact request. ID and CreatedAt are assigned by the store.
type StoredContact struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	ProjectType string    `json:"projectType"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ContactFilter narrows ListContacts results
type ContactFilter struct {
	ProjectTypes []string
	Limit        int
}

// FieldError is a single client-facing validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem found in one pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "invalid contact request: " + strings.Join(msgs, "; ")
}

// HasField reports whether field has at least one error.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// EmailOutcome records which of the two dispatches went out.
type EmailOutcome struct {
	ConfirmationSent bool
	NoticeSent       bool
}

// Delivered reports whether both messages were sent.
func (o EmailOutcome) Delivered() bool {
	return o.ConfirmationSent && o.NoticeSent
}

// SubmissionResult is the composite outcome of one Submit call.
type SubmissionResult struct {
	Success   bool
	EmailSent bool
	Message   string
	Contact   *StoredContact
	Emails    EmailOutcome
}

// ContactRepository persists contact requests
type ContactRepository interface {
	Create(ctx context.Context, req *ContactRequest) (*StoredContact, error)
	List(ctx context.Context, filter ContactFilter) ([]StoredContact, error)
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// Submit validates, stores and notifies for one contact form submission.
	// A non-nil result is returned for every outcome except validation failures.
	Submit(ctx context.Context, req *ContactRequest) (*SubmissionResult, error)
	// ListContacts returns stored submissions, newest first.
	ListContacts(ctx context.Context, filter ContactFilter) ([]StoredContact, error)
}
