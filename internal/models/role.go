package models

import (
	"encoding/json"
)

// Role is a named group of people on a roster, e.g. "Facilitator" or "GM".
// Fields this package does not know about (description, eligibility, ...)
// are kept in Extra so that a decode/encode round trip does not lose them.
type Role struct {
	Name        string   `json:"name" validate:"required"`
	Color       string   `json:"color" validate:"omitempty,palette"`
	Players     []Person `json:"players"`
	Terms       []Term   `json:"terms,omitempty" validate:"unique=Key,dive"`
	CurrentTerm string   `json:"currentTerm,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Term is one period of a role. Only the key matters here; everything
// else the server sends travels in Extra.
type Term struct {
	Key string `json:"key" validate:"required"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	roleFields = []string{"name", "color", "players", "terms", "currentTerm"}
	termFields = []string{"key"}
)

// roleJSON and termJSON drop the methods so the custom codecs can reuse
// the default struct encoding.
type roleJSON Role
type termJSON Term

// UnmarshalJSON implements json.Unmarshaler.
func (r *Role) UnmarshalJSON(data []byte) error {
	var known roleJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := splitExtra(data, roleFields)
	if err != nil {
		return err
	}
	known.Extra = extra
	*r = Role(known)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Role) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(roleJSON(r))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, r.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Term) UnmarshalJSON(data []byte) error {
	var known termJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := splitExtra(data, termFields)
	if err != nil {
		return err
	}
	known.Extra = extra
	*t = Term(known)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Term) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(termJSON(t))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, t.Extra)
}

// FindTerm returns the term with the given key, or nil. When several terms
// share the key the last one wins.
func (r *Role) FindTerm(key string) *Term {
	if r == nil || key == "" {
		return nil
	}
	for i := len(r.Terms) - 1; i >= 0; i-- {
		if r.Terms[i].Key == key {
			return &r.Terms[i]
		}
	}
	return nil
}

// HasPlayer reports whether a person with the given uid plays the role.
func (r *Role) HasPlayer(uid string) bool {
	for _, p := range r.Players {
		if p.SameAs(Person{UID: uid}) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	out := &Role{
		Name:        r.Name,
		Color:       r.Color,
		CurrentTerm: r.CurrentTerm,
		Extra:       cloneExtra(r.Extra),
	}
	if r.Players != nil {
		out.Players = make([]Person, len(r.Players))
		copy(out.Players, r.Players)
	}
	if r.Terms != nil {
		out.Terms = make([]Term, len(r.Terms))
		for i := range r.Terms {
			out.Terms[i] = r.Terms[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the term.
func (t Term) Clone() Term {
	return Term{Key: t.Key, Extra: cloneExtra(t.Extra)}
}

func splitExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		// known fields always win over stale copies in Extra
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
