package types

import "fmt"

// Origin records whether a tag ships with the application or was added by a user
type Origin string

const (
	OriginBuiltin Origin = "builtin"
	OriginUser    Origin = "user"
)

// Tag holds the field attributes of a single tag
type Tag struct {
	// Name is the unique identifier of the tag within a collection
	Name string `json:"name" yaml:"name"`

	// Type is the declared type of the tag's values
	Type FieldType `json:"field_type" yaml:"field_type"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// DefaultValue is assigned to scans that receive the tag without a value.
	// nil leaves them "not defined".
	DefaultValue any `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	Origin Origin `json:"origin" yaml:"origin"`
	Hidden bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// CoerceDefault returns the default value in canonical form, or nil
func (t Tag) CoerceDefault() (any, error) {
	if t.DefaultValue == nil {
		return nil, nil
	}
	v, err := t.Type.Coerce(t.DefaultValue)
	if err != nil {
		return nil, fmt.Errorf("tag %s: default value: %w", t.Name, err)
	}
	return v, nil
}

// TagSet represents an ordered collection of tags
type TagSet struct {
	tags   []Tag
	byName map[string]int
}

// NewTagSet creates a new tag set from a slice of tags
func NewTagSet(tags []Tag) *TagSet {
	ts := &TagSet{
		tags:   make([]Tag, len(tags)),
		byName: make(map[string]int, len(tags)),
	}
	copy(ts.tags, tags)
	for i := range ts.tags {
		ts.byName[ts.tags[i].Name] = i
	}
	return ts
}

// Get returns a tag by name
func (ts *TagSet) Get(name string) (Tag, bool) {
	i, ok := ts.byName[name]
	if !ok {
		return Tag{}, false
	}
	return ts.tags[i], true
}

// Lookup returns a tag by name or an error wrapping ErrTagNotFound
func (ts *TagSet) Lookup(name string) (Tag, error) {
	tag, ok := ts.Get(name)
	if !ok {
		return Tag{}, fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	return tag, nil
}

// All returns all tags in order
func (ts *TagSet) All() []Tag {
	out := make([]Tag, len(ts.tags))
	copy(out, ts.tags)
	return out
}

// Visible returns only tags that are not hidden
func (ts *TagSet) Visible() []Tag {
	var result []Tag
	for _, t := range ts.tags {
		if !t.Hidden {
			result = append(result, t)
		}
	}
	return result
}

// Names returns tag names in order
func (ts *TagSet) Names() []string {
	names := make([]string, len(ts.tags))
	for i, t := range ts.tags {
		names[i] = t.Name
	}
	return names
}

// Count returns the number of tags
func (ts *TagSet) Count() int {
	return len(ts.tags)
}
