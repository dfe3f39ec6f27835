/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import "github.com/go-openapi/strfmt"

// Fake is the sample entity used by tests and the example migrations.
type Fake struct {

	// Unique identifier, assigned by the store on create.
	ID int64 `json:"id,omitempty"`

	// Name of the entry.
	Name string `json:"name"`

	// Value of the entry.
	Value int `json:"value"`

	// Timestamp when the entry was created.
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"created_at,omitempty"`

	// Timestamp when the entry was last updated.
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"updated_at,omitempty"`
}

func (Fake) TableName() string {
	return "fake"
}
