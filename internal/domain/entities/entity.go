package entities

import (
	"fmt"
	"strings"
	"time"
)

// EntityType is the kind of a CRM record.
type EntityType string

const (
	EntityTypeOrganization EntityType = "ORGANIZATION"
	EntityTypePerson       EntityType = "PERSON"
)

// EntityTypes lists every entity type in schema order.
var EntityTypes = []EntityType{EntityTypeOrganization, EntityTypePerson}

// ParseEntityType accepts singular, plural and mixed-case spellings
// ("organization", "ORGANIZATIONS", "people", ...).
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "organization", "organizations", "org", "orgs":
		return EntityTypeOrganization, nil
	case "person", "people", "persons":
		return EntityTypePerson, nil
	default:
		return "", fmt.Errorf("invalid entity type %q (valid: organizations, people)", s)
	}
}

// IsValid reports whether t is a known entity type.
func (t EntityType) IsValid() bool {
	return t == EntityTypeOrganization || t == EntityTypePerson
}

// Plural returns the lower-case collection name used in URLs and schema groups.
func (t EntityType) Plural() string {
	switch t {
	case EntityTypeOrganization:
		return "organizations"
	case EntityTypePerson:
		return "people"
	default:
		return strings.ToLower(string(t))
	}
}

// Organization statuses.
const (
	StatusProspect = "PROSPECT"
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusChurned  = "CHURNED"
	StatusPartner  = "PARTNER"
)

// Person statuses.
const (
	StatusLead      = "LEAD"
	StatusNew       = "NEW"
	StatusQualified = "QUALIFIED"
	StatusCustomer  = "CUSTOMER"
	StatusLost      = "LOST"
)

var validStatuses = map[EntityType][]string{
	EntityTypeOrganization: {StatusProspect, StatusActive, StatusInactive, StatusChurned, StatusPartner},
	EntityTypePerson:       {StatusLead, StatusNew, StatusQualified, StatusCustomer, StatusActive, StatusInactive, StatusLost},
}

// DefaultStatus returns the status assigned when a create request omits one.
func DefaultStatus(t EntityType) string {
	if t == EntityTypePerson {
		return StatusLead
	}
	return StatusProspect
}

// ValidStatuses returns the allowed statuses for an entity type.
func ValidStatuses(t EntityType) []string {
	return validStatuses[t]
}

// IsValidStatus reports whether status is allowed for the entity type.
func IsValidStatus(t EntityType, status string) bool {
	for _, s := range validStatuses[t] {
		if s == status {
			return true
		}
	}
	return false
}

// Entity is an Organization or Person record. Built-in fields that do not
// apply to the entity's type stay empty.
type Entity struct {
	ID   string     `json:"id"`
	Type EntityType `json:"type"`

	// Organization
	Name        string `json:"name,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"company_size,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`

	// Person
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Tags      StringList `json:"tags,omitempty"`

	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Status string `json:"status"`

	CustomFields CustomFields `json:"custom_fields"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DisplayName returns the organization name or the person's full name.
func (e *Entity) DisplayName() string {
	if e.Type == EntityTypePerson {
		return strings.TrimSpace(e.FirstName + " " + e.LastName)
	}
	return e.Name
}

// SearchText returns the lower-cased text that list searches match against.
// Fields are separated by newlines so a term never matches across fields.
func (e *Entity) SearchText() string {
	var parts []string
	if e.Type == EntityTypePerson {
		parts = []string{e.FirstName, e.LastName, e.FirstName + " " + e.LastName, e.Email}
	} else {
		parts = []string{e.Name}
	}
	return NormalizeSearch(strings.Join(parts, "\n"))
}

// Clone returns a deep copy of the entity.
func (e *Entity) Clone() *Entity {
	c := *e
	c.Tags = e.Tags.Clone()
	c.CustomFields = e.CustomFields.Clone()
	return &c
}

// NormalizeSearch lower-cases and trims a search term or search text.
func NormalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EntityFilter narrows entity listings.
type EntityFilter struct {
	Type   EntityType
	Search string // case-insensitive substring, empty matches all
}

// Matches reports whether the entity passes the filter.
func (f EntityFilter) Matches(e *Entity) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if q := NormalizeSearch(f.Search); q != "" {
		return strings.Contains(e.SearchText(), q)
	}
	return true
}
