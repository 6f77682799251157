// Package tenancy resolves tenant identifiers to database scopes bound to the
// tenant's own PostgreSQL schema.
package tenancy

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SharedNamespace holds the cross-tenant identity tables.
const SharedNamespace = "public"

const maxNamespaceLength = 63

var (
	ErrInvalidNamespace = errors.New("invalid namespace")
	ErrUnknownNamespace = errors.New("unknown namespace")
)

var reservedNamespaces = map[string]bool{
	SharedNamespace:      true,
	"information_schema": true,
}

// DeriveNamespace turns an academy display name into its schema name:
// accents folded, lowercased, trimmed, whitespace runs collapsed to "_".
func DeriveNamespace(displayName string) (string, error) {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), displayName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNamespace, err)
	}

	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.Map(func(r rune) rune {
			if isNamespaceRune(r) {
				return r
			}
			return -1
		}, field)
		if word != "" {
			words = append(words, word)
		}
	}
	name := strings.Join(words, "_")

	if err := ValidateNamespace(name); err != nil {
		return "", err
	}
	return name, nil
}

// ValidateNamespace rejects anything that is not a plain lowercase
// identifier or that collides with a system schema.
func ValidateNamespace(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidNamespace)
	}
	if len(name) > maxNamespaceLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidNamespace, maxNamespaceLength)
	}
	for _, r := range name {
		if !isNamespaceRune(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidNamespace, name, r)
		}
	}
	if strings.Trim(name, "_") == "" {
		return fmt.Errorf("%w: %q has no letters or digits", ErrInvalidNamespace, name)
	}
	if reservedNamespaces[name] || strings.HasPrefix(name, "pg_") {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidNamespace, name)
	}
	return nil
}

// QuoteNamespace returns name as a quoted SQL identifier.
func QuoteNamespace(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// SearchPath builds the search_path value for namespace. The shared
// namespace always comes last; an empty namespace means shared only.
func SearchPath(namespace string) string {
	if namespace == "" {
		return SharedNamespace
	}
	return QuoteNamespace(namespace) + ", " + SharedNamespace
}

func isNamespaceRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}
