// Package naming converts component, prop and event names between the
// kebab-case form used in templates and the camelCase form used in scripts.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToKebab converts camelCase or PascalCase to kebab-case
//
// Examples:
//
//	"positionIdentifier" -> "position-identifier"
//	"MyComponent"        -> "my-component"
//	"label"              -> "label"
func ToKebab(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamel converts kebab-case to camelCase. ToKebab inverts it for names
// whose segments start with a letter; a digit segment merges into the one
// before it, the same way Vue camelizes tags.
//
// Examples:
//
//	"position-identifier" -> "positionIdentifier"
//	"my-prop-name"        -> "myPropName"
//	"label"               -> "label"
//	"col-12"              -> "col12"
func ToCamel(s string) string {
	parts := strings.Split(s, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		parts[i] = Capitalize(parts[i])
	}
	return strings.Join(parts, "")
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// NameVariants returns the camelCase form of name, its capitalized form and,
// when includeKebab is set, the kebab-case form. Used to match a tag or
// attribute against every spelling a registration can use.
func NameVariants(name string, includeKebab bool) map[string]struct{} {
	camel := ToCamel(ToKebab(name))
	variants := map[string]struct{}{
		camel:             {},
		Capitalize(camel): {},
	}
	if includeKebab {
		variants[ToKebab(camel)] = struct{}{}
	}
	return variants
}

// Normalize is the key under which registrations are stored: every spelling
// of one component name maps to the same kebab-case key.
func Normalize(name string) string {
	return ToKebab(ToCamel(ToKebab(name)))
}
