// Package selector derives minimal stable identifiers for page elements.
//
// An element has no natural persistent key, so the resolver imposes one from
// the most durable attributes available: an id beats a name, a name beats
// nothing. The same physical element resolves to the same selector across
// extraction passes as long as its identifying attributes are unchanged.
package selector

import (
	"strings"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
)

// Unknown is the fallback sentinel for elements with no identifying
// attributes. Resolution never fails; it degrades to this value.
const Unknown = "unknown"

// Resolve derives a selector from the fixed attribute record. It is a pure
// function: same input, same output, and the live element is never touched.
//
// Priority, first match wins:
//  1. id attribute        -> #id
//  2. name + tag or role  -> tag[name='value']
//  3. nothing usable      -> "unknown"
//
// Accessibility-tree elements reuse the same scheme with the ARIA role as the
// tag and the accessible name as the name attribute.
func Resolve(attrs schemas.ElementAttributes) string {
	if attrs.ID != "" {
		return "#" + attrs.ID
	}

	if attrs.Name != "" {
		tag := strings.ToLower(attrs.TagOrRole)
		if tag == "" {
			return Unknown
		}
		return tag + "[name='" + escapeQuotes(attrs.Name) + "']"
	}

	return Unknown
}

// escapeQuotes keeps attribute values from breaking out of the selector's
// quoting.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
