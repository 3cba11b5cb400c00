// Package profile persists named bundles of per-forum settings.
package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrImmutable is returned when overwriting a field that may only be set once.
var ErrImmutable = errors.New("field is already set")

// Field is a persisted profile key.
type Field string

const (
	FieldName         Field = "configName"
	FieldForumURL     Field = "forum"
	FieldUsername     Field = "usrName"
	FieldAccountID    Field = "usrId"
	FieldPluginName   Field = "pluginName"
	FieldBuildCommand Field = "buildCommand"
)

// Store is keyed persistent storage scoped by profile name.
type Store interface {
	Get(profile, key string) (string, bool)
	Set(profile, key, value string) error
	Delete(profile string) error
	ListProfiles() []string
}

// Profile is the active profile. Every read goes to the store, so a component
// always sees the latest value written by another.
type Profile struct {
	name  string
	store Store
}

// Open returns a handle for an existing or new profile.
func Open(store Store, name string) *Profile {
	return &Profile{name: name, store: store}
}

// Create registers a new profile by storing its name under itself.
func Create(store Store, name string) (*Profile, error) {
	p := Open(store, name)
	if err := p.Set(FieldName, name); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) Name() string {
	return p.name
}

// Get returns the field value, or "" when unset.
func (p *Profile) Get(f Field) string {
	v, _ := p.store.Get(p.name, string(f))
	return v
}

// Has reports whether the field holds a non-empty value.
func (p *Profile) Has(f Field) bool {
	return p.Get(f) != ""
}

// Set writes a field. The forum URL cannot be changed once set.
func (p *Profile) Set(f Field, value string) error {
	if f == FieldForumURL && p.Has(FieldForumURL) && p.Get(FieldForumURL) != value {
		return fmt.Errorf("profile %q: %s: %w", p.name, f, ErrImmutable)
	}
	if err := p.store.Set(p.name, string(f), value); err != nil {
		return fmt.Errorf("profile %q: save %s: %w", p.name, f, err)
	}
	return nil
}

// Clear unsets a field, which makes the next step prompt for it again.
func (p *Profile) Clear(f Field) error {
	return p.Set(f, "")
}

func (p *Profile) ForumURL() string { return p.Get(FieldForumURL) }
func (p *Profile) Username() string { return p.Get(FieldUsername) }
func (p *Profile) AccountID() string { return p.Get(FieldAccountID) }
func (p *Profile) PluginName() string { return p.Get(FieldPluginName) }
func (p *Profile) BuildCommand() string { return p.Get(FieldBuildCommand) }

// ForumHost strips any scheme, surrounding space and trailing slash the
// operator typed, leaving the bare host. It returns "" when nothing is left.
func ForumHost(input string) string {
	host := strings.TrimSpace(input)
	for {
		lower := strings.ToLower(host)
		switch {
		case strings.HasPrefix(lower, "https://"):
			host = host[len("https://"):]
		case strings.HasPrefix(lower, "http://"):
			host = host[len("http://"):]
		default:
			return strings.TrimSpace(strings.TrimRight(host, "/"))
		}
	}
}

// ForumURLFromHost turns an operator-typed host into the stored endpoint,
// which always carries exactly one "https://".
func ForumURLFromHost(host string) string {
	return "https://" + ForumHost(host)
}
