// Package models holds the canonical records of the prior authorization
// intake pipeline.
package models

import "time"

// Status is the review state of a prior authorization request.
// New requests always start as pending; later transitions belong to the
// approval workflow, which only needs the field to stay mutable.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Request is the canonical persisted record of a submission. All fields
// except Status are immutable once the record is created.
type Request struct {
	// ID is the assigned identifier, formatted PA-NNNNN. Uniqueness is
	// enforced at the store boundary; a collision fails the write.
	ID               string    `json:"request_id"`
	MemberID         string    `json:"member_id"`
	ProviderNPI      string    `json:"provider_npi"`
	DiagnosisCode    string    `json:"diagnosis_code"`
	RequestedService string    `json:"requested_service"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Submission is the inbound payload of a prior authorization request,
// before validation and identifier assignment.
type Submission struct {
	MemberID         string `json:"member_id"`
	ProviderNPI      string `json:"provider_npi"`
	DiagnosisCode    string `json:"diagnosis_code"`
	RequestedService string `json:"requested_service"`
}
