package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// xmlNameRegex matches the subset of XML names accepted as element tags.
// Colons are excluded so a type name is never mistaken for a namespace prefix.
var xmlNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// reservedTags are element names owned by the value codec.
var reservedTags = map[string]bool{
	"property":  true,
	"listEntry": true,
	"mapEntry":  true,
	"qobject":   true,
	"qgadget":   true,
}

// ValidateTypeName validates a name under which a type is registered.
//
// The rules are intentionally loose because most type names only ever
// appear inside the type attribute:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateTypeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "type name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "type name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "type name contains invalid control characters")
		}
	}

	return nil
}

// ValidateTagName validates a type name that will be written as an element
// tag, which is the case for string lists and dispatch-table types.
// Reserved codec tags are rejected so documents stay unambiguous.
func ValidateTagName(name string) error {
	if err := ValidateTypeName(name); err != nil {
		return err
	}

	if !xmlNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "type name %q is not a valid element name", name)
	}

	if reservedTags[name] {
		return New(ErrCodeInvalidName, "type name %q collides with a reserved tag", name)
	}

	return nil
}

// ValidatePropertyName validates a property name derived from a struct
// field or tag. Property names are attribute values, so only emptiness,
// whitespace and control characters are rejected.
func ValidatePropertyName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "property name cannot be empty")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "property name %q contains whitespace or control characters", name)
		}
	}

	return nil
}

// ValidateKey validates a document store key for safety.
// It prevents path traversal in file-backed stores and keeps keys usable
// as URL path segments.
//
// Validation rules:
//   - Key cannot be empty
//   - Maximum length of 200 characters
//   - No null bytes or control characters
//   - No path separators or traversal sequences (..)
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "key cannot be empty")
	}

	const maxKeyLength = 200
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidInput, "key too long (max %d characters)", maxKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "key contains invalid characters")
		}
	}

	if strings.ContainsAny(key, "/\\") {
		return New(ErrCodeInvalidInput, "key cannot contain path separators")
	}

	if strings.Contains(key, "..") {
		return New(ErrCodeInvalidInput, "key cannot contain path traversal sequences (..)")
	}

	return nil
}
