package models

import "strings"

// Person is a reference to somebody in the people directory. UID is usually
// the person's e-mail address.
type Person struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
	Key  string `json:"key,omitempty"`
}

// ID returns the case-folded identity used to compare people.
func (p Person) ID() string {
	if p.UID != "" {
		return strings.ToLower(strings.TrimSpace(p.UID))
	}
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// SameAs reports whether both values refer to the same person.
func (p Person) SameAs(other Person) bool {
	return p.ID() != "" && p.ID() == other.ID()
}

// DisplayName returns the name, falling back to the uid.
func (p Person) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.UID
}
