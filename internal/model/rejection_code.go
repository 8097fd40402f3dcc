package model

import (
	"strings"
	"time"
)

// TypeRejectionCode is the generic-object type tag the API stores rejection codes under.
const TypeRejectionCode = "RejectionCode"

// DisplayName is used in notifications and dialog titles.
const DisplayName = "Rejection Code"

// RejectionCode is one quality rejection code as returned by the API.
//
// Key is assigned by the server; a record without a key has never been saved.
type RejectionCode struct {
	Key         string         `json:"generic_object_key,omitempty"`
	Type        string         `json:"type,omitempty"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

func (r RejectionCode) IsNew() bool {
	return strings.TrimSpace(r.Key) == ""
}

// GenericObject is the write shape for create and update calls.
type GenericObject struct {
	Type        string         `json:"type"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
}

// NewGenericObject builds a write payload with an empty (not null) properties map.
func NewGenericObject(code, name, description string) GenericObject {
	return GenericObject{
		Type:        TypeRejectionCode,
		Code:        code,
		Name:        name,
		Description: description,
		Properties:  map[string]any{},
	}
}

// ObjectEnvelope wraps a single object on the wire: {"generic_object": {...}}.
type ObjectEnvelope[T any] struct {
	Object T `json:"generic_object"`
}

// ListEnvelope is the list response: {"generic_objects": [...], "total_pages": N}.
type ListEnvelope struct {
	Objects    []RejectionCode `json:"generic_objects"`
	TotalPages int             `json:"total_pages"`
}
