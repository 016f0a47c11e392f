package validation

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/scanstore/types"
)

// Validate checks the tag schema for consistency
func Validate(ts *types.TagSet) error {
	seen := make(map[string]bool)
	for _, tag := range ts.All() {
		if seen[tag.Name] {
			return fmt.Errorf("duplicate tag name: %s", tag.Name)
		}
		seen[tag.Name] = true

		if err := ValidateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTag checks a single tag definition
func ValidateTag(tag types.Tag) error {
	if err := ValidateTagName(tag.Name); err != nil {
		return err
	}

	if !tag.Type.Valid() {
		return fmt.Errorf("tag %s: invalid field type %d", tag.Name, int(tag.Type))
	}

	switch tag.Origin {
	case types.OriginBuiltin, types.OriginUser:
	default:
		return fmt.Errorf("tag %s: invalid origin %q", tag.Name, tag.Origin)
	}

	// Default value must be representable in the declared type
	if _, err := tag.CoerceDefault(); err != nil {
		return err
	}

	return nil
}

// ValidateTagName checks that a name can be used as a tag identifier
func ValidateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name cannot be empty")
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("tag name %q has leading or trailing whitespace", name)
	}
	if strings.ContainsAny(name, "{}") {
		return fmt.Errorf("tag name %q cannot contain braces", name)
	}
	if IsReservedTagName(name) {
		return fmt.Errorf("'%s' is a reserved tag name", name)
	}
	return nil
}

// IsReservedTagName checks if a tag name is reserved by the store
func IsReservedTagName(name string) bool {
	reserved := []string{
		// Primary key and bookkeeping columns
		"path", "created_at", "updated_at",
		// Filter grammar keywords
		"and", "or", "not", "in", "contains",
	}

	name = strings.ToLower(name)
	for _, reservedName := range reserved {
		if name == reservedName {
			return true
		}
	}
	return false
}
