// File: internal/extract/roles.go
package extract

// The classification vocabularies below are fixed: every extraction call uses
// the same rule sets, so two passes over the same page can never disagree
// about what counts as interactive or informative.

// interactiveXPath finds candidate interactive nodes in one pass. The query is
// deliberately broad; refined filtering (hidden inputs, disabled state,
// aria-hidden subtrees) happens in Go afterwards.
const interactiveXPath = `
    //input | //textarea | //select | //button |
    //a[@href] | //details | //summary |
    //div[@onclick] | //span[@onclick] |
    //*[normalize-space(@contenteditable)='true'] |
    //*[@role='button' or @role='link' or @role='textbox' or @role='searchbox'
       or @role='combobox' or @role='listbox' or @role='option' or @role='checkbox'
       or @role='radio' or @role='switch' or @role='slider' or @role='spinbutton'
       or @role='menuitem' or @role='menuitemcheckbox' or @role='menuitemradio'
       or @role='tab']
`

// informativeRoles is the accessibility-tree vocabulary of text-bearing roles.
// Both the ARIA spelling and the Chrome DevTools Protocol spelling are listed
// where they differ (e.g. "text" vs "StaticText").
var informativeRoles = map[string]bool{
	"article":       true,
	"section":       true,
	"Section":       true,
	"paragraph":     true,
	"listitem":      true,
	"blockquote":    true,
	"heading":       true,
	"text":          true,
	"StaticText":    true,
	"list":          true,
	"figure":        true,
	"image":         true,
	"img":           true,
	"link":          true,
	"code":          true,
	"Pre":           true,
	"pre":           true,
	"table":         true,
	"row":           true,
	"cell":          true,
	"gridcell":      true,
	"columnheader":  true,
	"rowheader":     true,
	"definition":    true,
	"term":          true,
	"note":          true,
	"banner":        true,
	"contentinfo":   true,
	"complementary": true,
	"navigation":    true,
	"main":          true,
	"region":        true,
	"search":        true,
}

// containerRoles are informative roles whose own accessible name is usually a
// truncated summary. For these, the concatenated text of all descendant plain
// text leaves replaces the name whenever that concatenation is non-empty, so
// nested prose survives extraction.
var containerRoles = map[string]bool{
	"article":    true,
	"section":    true,
	"Section":    true,
	"paragraph":  true,
	"listitem":   true,
	"blockquote": true,
}

// textLeafRoles mark plain-text leaves in the accessibility tree.
var textLeafRoles = map[string]bool{
	"text":       true,
	"StaticText": true,
}

// formControlTags are DOM tags whose enabled state matters.
var formControlTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
	"button":   true,
}

// labelWrappedTags are the controls an enclosing <label> implicitly labels. A
// button names itself through its text; wrapping it in a label does not
// relabel it.
var labelWrappedTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
}
