package schemas

import (
	"golang.org/x/net/html"
)

// -- Page Element Schemas --

// Element is the stable, classified view of a single page node. Optional
// fields carry omitempty so serialized payloads stay minimal for downstream
// consumers; absence means "not present on the node", never "empty string".
type Element struct {
	Selector    string `json:"selector"`
	TagOrRole   string `json:"tagOrRole"`
	Label       string `json:"label,omitempty"`
	Contents    string `json:"contents,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
	Role        string `json:"role,omitempty"`
	Href        string `json:"href,omitempty"`
	Title       string `json:"title,omitempty"`
	InputType   string `json:"inputType,omitempty"`
	IsEnabled   bool   `json:"isEnabled"`
}

// ElementIdentity is the value tuple used to decide whether two elements are
// "the same" when diffing successive snapshots. Two elements are equal iff
// every field of this tuple matches.
type ElementIdentity struct {
	Selector  string
	TagOrRole string
	Contents  string
	Label     string
	Role      string
}

// Identity returns the diff key for the element.
func (e Element) Identity() ElementIdentity {
	return ElementIdentity{
		Selector:  e.Selector,
		TagOrRole: e.TagOrRole,
		Contents:  e.Contents,
		Label:     e.Label,
		Role:      e.Role,
	}
}

// ElementMap indexes elements by their resolved selector.
type ElementMap map[string]Element

// Clone returns a shallow copy of the map. Elements are value types, so a
// shallow copy is a full copy.
func (m ElementMap) Clone() ElementMap {
	if m == nil {
		return nil
	}
	out := make(ElementMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ElementAttributes is the fixed attribute record read once at the DOM
// boundary. Extraction code consumes this struct instead of re-reading raw
// attribute lists at every call site.
type ElementAttributes struct {
	ID          string
	Name        string
	Type        string
	Placeholder string
	AriaLabel   string
	Role        string
	Href        string
	Title       string
	Value       string
	TagOrRole   string
}

// -- Accessibility Tree Schemas --

// AccessibilityNode is one node of the browser's accessibility tree. The tree
// is read-only input to the semantic model; the browser driver owns its
// construction.
type AccessibilityNode struct {
	Role     string               `json:"role"`
	Name     string               `json:"name,omitempty"`
	Children []*AccessibilityNode `json:"children,omitempty"`
}

// -- Snapshot Schemas --

// PageSnapshot bundles the two views of one point-in-time page observation:
// the parsed DOM and the accessibility tree, plus the URL they were taken
// from. Both views must represent the same page state.
type PageSnapshot struct {
	URL           string
	Document      *html.Node
	Accessibility *AccessibilityNode
}

// SnapshotDelta reports what an observation changed, per side. Empty maps
// mean the observation was a no-op for that side.
type SnapshotDelta struct {
	URL                string     `json:"url"`
	InteractiveUpdates ElementMap `json:"interactiveUpdates,omitempty"`
	InformativeUpdates ElementMap `json:"informativeUpdates,omitempty"`
}

// Changed reports whether either side produced updates.
func (d SnapshotDelta) Changed() bool {
	return len(d.InteractiveUpdates) > 0 || len(d.InformativeUpdates) > 0
}
