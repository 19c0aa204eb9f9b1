package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the root of the catalog hierarchy.
type Organization struct {
	ID           uuid.UUID `json:"org_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ContactEmail string    `json:"contactEmail"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OrganizationDetail is an organization with the events it owns (GET /organizations/:id).
type OrganizationDetail struct {
	Organization
	Events []Event `json:"events"`
}

// OrganizationInput is the body for POST /organizations.
type OrganizationInput struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description" validate:"required"`
	ContactEmail string `json:"contactEmail" validate:"required,email"`
}

// OrganizationPatch is the body for PUT /organizations/:id. Nil fields keep their stored value.
type OrganizationPatch struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ContactEmail *string `json:"contactEmail"`
}

// Input returns the organization's current writable fields.
func (o *Organization) Input() OrganizationInput {
	return OrganizationInput{
		Name:         o.Name,
		Description:  o.Description,
		ContactEmail: o.ContactEmail,
	}
}

// Apply overlays the supplied fields onto in.
func (p OrganizationPatch) Apply(in OrganizationInput) OrganizationInput {
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.ContactEmail != nil {
		in.ContactEmail = *p.ContactEmail
	}
	return in
}
