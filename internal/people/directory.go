// Package people keeps the set of known people and answers the
// autocomplete lookups made while editing role players.
package people

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/nebari-dev/roster/internal/models"
)

// DefaultLimit caps the number of matches returned by a lookup.
const DefaultLimit = 20

// Directory is an in-memory people directory. It is safe for concurrent use.
type Directory struct {
	mu     sync.RWMutex
	byID   map[string]int
	people []models.Person
	limit  int
}

// NewDirectory creates an empty directory. A limit <= 0 uses DefaultLimit.
func NewDirectory(limit int) *Directory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Directory{
		byID:  make(map[string]int),
		limit: limit,
	}
}

// Add records people. A person already known by uid is updated in place
// when the new entry carries a name the old one lacked.
func (d *Directory) Add(people ...models.Person) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range people {
		id := p.ID()
		if id == "" {
			continue
		}
		if i, ok := d.byID[id]; ok {
			if d.people[i].Name == "" && p.Name != "" {
				d.people[i].Name = p.Name
			}
			if d.people[i].Key == "" {
				d.people[i].Key = p.Key
			}
			continue
		}
		d.byID[id] = len(d.people)
		d.people = append(d.people, p)
	}
}

// AddRoles records every player of the given roles.
func (d *Directory) AddRoles(roles []models.Role) {
	for _, r := range roles {
		d.Add(r.Players...)
	}
}

// Len returns the number of known people.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.people)
}

// Lookup returns the person with the given uid.
func (d *Directory) Lookup(uid string) (models.Person, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.byID[models.Person{UID: uid}.ID()]
	if !ok {
		return models.Person{}, false
	}
	return d.people[i], true
}

// FindMatchingPeople returns people whose name or uid fuzzy-matches query,
// best match first. An empty query matches nobody.
func (d *Directory) FindMatchingPeople(ctx context.Context, query string) ([]models.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Person{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	// two targets per person: name, then uid
	targets := make([]string, 0, 2*len(d.people))
	for _, p := range d.people {
		targets = append(targets, p.Name, p.UID)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	seen := make(map[int]bool)
	out := make([]models.Person, 0, d.limit)
	for _, r := range ranks {
		idx := r.OriginalIndex / 2
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, d.people[idx])
		if len(out) == d.limit {
			break
		}
	}
	return out, nil
}
