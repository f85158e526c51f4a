package roster

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultExpectedHours is assumed for users with no explicit target, and for
// raw user labels that have no roster entry at all.
const DefaultExpectedHours = 80

// User is one roster entry. ExpectedHours is a pointer so an explicit zero
// (user expected to log nothing this period) is distinguishable from absent.
type User struct {
	ID            string   `yaml:"id"`
	DisplayName   string   `yaml:"display_name"`
	ExpectedHours *float64 `yaml:"expected_hours"`
	Aliases       []string `yaml:"aliases"`
}

type rosterFile struct {
	Users []User `yaml:"users"`
}

// Directory resolves free-text user labels to roster entries via a
// case-insensitive alias index built once at load time. The index covers
// each user's ID, display name and declared aliases.
type Directory struct {
	users   []User
	byAlias map[string]*User
}

// Load reads a YAML roster file and builds the directory.
func Load(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: read file %s: %w", path, err)
	}
	var rf rosterFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("roster: parse yaml %s: %w", path, err)
	}
	d, err := New(rf.Users)
	if err != nil {
		return nil, fmt.Errorf("roster: %s: %w", path, err)
	}
	return d, nil
}

// New builds a directory from in-memory users. Aliases must not collide
// across users.
func New(users []User) (*Directory, error) {
	d := &Directory{
		users:   make([]User, len(users)),
		byAlias: make(map[string]*User),
	}
	copy(d.users, users)

	for i := range d.users {
		u := &d.users[i]
		if u.ID == "" {
			return nil, fmt.Errorf("user %d has no id", i)
		}
		if u.DisplayName == "" {
			u.DisplayName = u.ID
		}
		keys := append([]string{u.ID, u.DisplayName}, u.Aliases...)
		for _, k := range keys {
			key := normalize(k)
			if key == "" {
				continue
			}
			if prev, ok := d.byAlias[key]; ok && prev != u {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", k, prev.ID, u.ID)
			}
			d.byAlias[key] = u
		}
	}
	return d, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FindByAlias resolves a raw user label. Returns nil when unknown; callers
// are expected to pass unknown labels through rather than drop them.
func (d *Directory) FindByAlias(text string) *User {
	if d == nil {
		return nil
	}
	return d.byAlias[normalize(text)]
}

// ExpectedHours returns the per-period target for a user, defaulting when the
// roster does not specify one. A nil user (unmapped label) gets the default.
func (d *Directory) ExpectedHours(u *User) float64 {
	if u == nil || u.ExpectedHours == nil {
		return DefaultExpectedHours
	}
	return *u.ExpectedHours
}

// Users returns the roster entries in declaration order.
func (d *Directory) Users() []User {
	if d == nil {
		return nil
	}
	return d.users
}
