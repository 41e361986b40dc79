package models

// NameRef is a minimal id/name pair. The job-type, business-unit, and
// tag-type reference endpoints all decode as NameRef, and invoices embed
// it for their business unit.
type NameRef struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}
