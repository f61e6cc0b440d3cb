// File: internal/extract/extractor.go

// Package extract turns a raw page snapshot into classified element lists.
//
// Interactive elements come from the parsed DOM; informative elements come
// from the accessibility tree. Both extractions are synchronous, pure
// computations over the supplied snapshot: no live page is touched, and a
// malformed node never aborts a pass.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
	"github.com/xkilldash9x/pagescope-cli/internal/config"
	"github.com/xkilldash9x/pagescope-cli/internal/selector"
)

const ellipsis = "..."

// Extractor produces classified element lists from page snapshots.
type Extractor struct {
	logger     *zap.Logger
	maxContent int
}

// New creates an extractor. A zero MaxContentLength falls back to 200.
func New(logger *zap.Logger, cfg config.ExtractorConfig) *Extractor {
	maxContent := cfg.MaxContentLength
	if maxContent <= 0 {
		maxContent = 200
	}
	return &Extractor{
		logger:     logger.Named("extractor"),
		maxContent: maxContent,
	}
}

// -- Interactive extraction (DOM side) --

// ExtractInteractive walks the parsed DOM and returns every visible,
// addressable element a user could click, type into, or otherwise operate.
// Errors on individual nodes are swallowed; the node is skipped and the walk
// continues.
func (e *Extractor) ExtractInteractive(doc *html.Node) []schemas.Element {
	if doc == nil {
		return nil
	}

	candidates := htmlquery.Find(doc, interactiveXPath)

	elements := make([]schemas.Element, 0, len(candidates))
	for _, node := range candidates {
		elem, ok := e.processInteractiveNode(doc, node)
		if !ok {
			continue
		}
		elements = append(elements, elem)
	}

	return dedupeBySelector(elements)
}

// processInteractiveNode builds an Element for one candidate DOM node. The
// recover guard keeps a single malformed node from taking down the pass.
func (e *Extractor) processInteractiveNode(doc, node *html.Node) (elem schemas.Element, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("Skipping malformed node", zap.Any("panic", r))
			ok = false
		}
	}()

	attrs := readAttributes(node)
	if !isAddressable(node, attrs) {
		return schemas.Element{}, false
	}

	tag := strings.ToLower(node.Data)
	elem = schemas.Element{
		Selector:    selector.Resolve(attrs),
		TagOrRole:   tag,
		Contents:    e.readContents(node, attrs),
		Label:       resolveLabel(doc, node, attrs),
		Placeholder: attrs.Placeholder,
		AriaLabel:   attrs.AriaLabel,
		Role:        attrs.Role,
		Href:        attrs.Href,
		Title:       attrs.Title,
		IsEnabled:   isEnabled(node, tag),
	}
	if tag == "input" {
		elem.InputType = attrs.Type
	}
	return elem, true
}

// readAttributes reads the raw attribute list into the fixed record exactly
// once, at the DOM boundary. Everything downstream consumes the record.
func readAttributes(node *html.Node) schemas.ElementAttributes {
	attrs := schemas.ElementAttributes{TagOrRole: strings.ToLower(node.Data)}
	for _, a := range node.Attr {
		switch a.Key {
		case "id":
			attrs.ID = a.Val
		case "name":
			attrs.Name = a.Val
		case "type":
			attrs.Type = a.Val
		case "placeholder":
			attrs.Placeholder = a.Val
		case "aria-label":
			attrs.AriaLabel = a.Val
		case "role":
			attrs.Role = a.Val
		case "href":
			attrs.Href = a.Val
		case "title":
			attrs.Title = a.Val
		case "value":
			attrs.Value = a.Val
		}
	}
	return attrs
}

// isAddressable filters out nodes that are neither visible nor otherwise
// reachable by a user: hidden inputs, [hidden], aria-hidden subtree roots and
// inline display:none styling.
func isAddressable(node *html.Node, attrs schemas.ElementAttributes) bool {
	if attrs.TagOrRole == "input" && strings.EqualFold(attrs.Type, "hidden") {
		return false
	}
	for _, a := range node.Attr {
		switch a.Key {
		case "hidden":
			return false
		case "aria-hidden":
			if a.Val == "true" {
				return false
			}
		case "style":
			style := strings.ReplaceAll(a.Val, " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return false
			}
		}
	}
	return true
}

// readContents captures what the element currently holds: the value for
// inputs and textareas, the visible text for everything else. Visible text is
// whitespace-collapsed and truncated with an ellipsis marker.
func (e *Extractor) readContents(node *html.Node, attrs schemas.ElementAttributes) string {
	tag := strings.ToLower(node.Data)
	if tag == "input" || tag == "textarea" {
		return attrs.Value
	}

	text := strings.Join(strings.Fields(htmlquery.InnerText(node)), " ")
	if utf8.RuneCountInString(text) > e.maxContent {
		// Cut on a rune boundary; a byte slice could split a multibyte
		// character and leak invalid UTF-8 into serialized payloads.
		runes := []rune(text)
		text = string(runes[:e.maxContent-len(ellipsis)]) + ellipsis
	}
	return text
}

// resolveLabel finds the element's associated label: an explicit label[for=id]
// anywhere in the document, else the nearest enclosing <label> for form
// controls.
func resolveLabel(doc, node *html.Node, attrs schemas.ElementAttributes) string {
	if attrs.ID != "" {
		query := fmt.Sprintf(`//label[@for=%q]`, attrs.ID)
		if labelNode := htmlquery.FindOne(doc, query); labelNode != nil {
			if text := strings.Join(strings.Fields(htmlquery.InnerText(labelNode)), " "); text != "" {
				return text
			}
		}
	}

	if !labelWrappedTags[strings.ToLower(node.Data)] {
		return ""
	}
	for parent := node.Parent; parent != nil; parent = parent.Parent {
		if parent.Type == html.ElementNode && strings.EqualFold(parent.Data, "label") {
			return strings.Join(strings.Fields(htmlquery.InnerText(parent)), " ")
		}
	}
	return ""
}

// isEnabled reports whether a form control is operable. Non-form elements are
// always considered enabled.
func isEnabled(node *html.Node, tag string) bool {
	if !formControlTags[tag] {
		return true
	}
	for _, a := range node.Attr {
		if a.Key == "disabled" {
			return false
		}
	}
	return true
}

// -- Informative extraction (accessibility side) --

// axFrame is one entry of the explicit traversal stack. An explicit stack
// bounds recursion depth regardless of how deep an externally supplied tree
// nests.
type axFrame struct {
	node *schemas.AccessibilityNode
	next int
}

// ExtractInformative walks the accessibility tree and collects every node
// whose role belongs to the informative vocabulary. The returned order places
// descendants before the nodes that contain them.
func (e *Extractor) ExtractInformative(root *schemas.AccessibilityNode) []schemas.Element {
	if root == nil {
		return nil
	}

	var elements []schemas.Element
	stack := []axFrame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.Children) {
			child := top.node.Children[top.next]
			top.next++
			if child != nil {
				stack = append(stack, axFrame{node: child})
			}
			continue
		}

		// Post-visit: every descendant has already been emitted.
		node := top.node
		stack = stack[:len(stack)-1]

		if !informativeRoles[node.Role] {
			continue
		}

		content := node.Name
		if containerRoles[node.Role] {
			// Containers swap their own (often truncated) name for the full
			// nested prose when any exists.
			if joined := joinTextLeaves(node); joined != "" {
				content = joined
			}
		}
		if content == "" {
			continue
		}

		elements = append(elements, schemas.Element{
			Selector: selector.Resolve(schemas.ElementAttributes{
				Name:      node.Name,
				TagOrRole: node.Role,
			}),
			TagOrRole: node.Role,
			Contents:  content,
			Role:      node.Role,
			IsEnabled: true,
		})
	}

	return dedupeBySelector(elements)
}

// joinTextLeaves concatenates the names of all plain-text leaves beneath node
// in depth-first document order.
func joinTextLeaves(node *schemas.AccessibilityNode) string {
	var parts []string
	stack := []*schemas.AccessibilityNode{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current != node && textLeafRoles[current.Role] && current.Name != "" {
			parts = append(parts, current.Name)
		}
		// Push children in reverse so they pop in document order.
		for i := len(current.Children) - 1; i >= 0; i-- {
			if current.Children[i] != nil {
				stack = append(stack, current.Children[i])
			}
		}
	}
	return strings.Join(parts, " ")
}

// -- Shared helpers --

// dedupeBySelector drops later entries that share a selector with an earlier
// one. Several selector strategies can match the same physical element; only
// the first sighting survives.
func dedupeBySelector(elements []schemas.Element) []schemas.Element {
	seen := make(map[string]bool, len(elements))
	unique := elements[:0]
	for _, elem := range elements {
		if seen[elem.Selector] {
			continue
		}
		seen[elem.Selector] = true
		unique = append(unique, elem)
	}
	return unique
}
