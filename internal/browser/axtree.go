// File: internal/browser/axtree.go
package browser

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/accessibility"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// captureAXTree fetches the full accessibility tree over CDP and re-nests the
// flat node list into the read-only tree shape the semantic model consumes.
func captureAXTree(ctx context.Context) (*schemas.AccessibilityNode, error) {
	nodes, err := accessibility.GetFullAXTree().Do(ctx)
	if err != nil {
		return nil, err
	}
	return BuildAXTree(nodes), nil
}

// BuildAXTree converts the protocol's flat AXNode list into a nested tree.
// Ignored nodes are skipped but their children are lifted into the nearest
// kept ancestor, matching how assistive technologies see the page. Returns
// nil for an empty list.
func BuildAXTree(nodes []*accessibility.Node) *schemas.AccessibilityNode {
	if len(nodes) == 0 {
		return nil
	}

	byID := make(map[accessibility.NodeID]*accessibility.Node, len(nodes))
	for _, n := range nodes {
		if n != nil {
			byID[n.NodeID] = n
		}
	}

	// The root is the first node without a known parent; CDP lists it first,
	// but don't rely on ordering alone.
	var root *accessibility.Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ParentID == "" || byID[n.ParentID] == nil {
			root = n
			break
		}
	}
	if root == nil {
		root = nodes[0]
	}

	return convertAXNode(root, byID)
}

// convertAXNode builds the subtree below raw iteratively, collapsing ignored
// nodes. An explicit work list bounds stack depth on arbitrarily deep pages.
func convertAXNode(raw *accessibility.Node, byID map[accessibility.NodeID]*accessibility.Node) *schemas.AccessibilityNode {
	type workItem struct {
		raw    *accessibility.Node
		parent *schemas.AccessibilityNode
	}

	var rootOut *schemas.AccessibilityNode
	work := []workItem{{raw: raw}}

	for len(work) > 0 {
		item := work[len(work)-1]
		work = work[:len(work)-1]

		attachTo := item.parent
		if !item.raw.Ignored {
			node := &schemas.AccessibilityNode{
				Role: axValueString(item.raw.Role),
				Name: axValueString(item.raw.Name),
			}
			if item.parent == nil {
				rootOut = node
			} else {
				item.parent.Children = append(item.parent.Children, node)
			}
			attachTo = node
		} else if item.parent == nil {
			// An ignored root still needs an anchor for its children.
			rootOut = &schemas.AccessibilityNode{Role: "ignored"}
			attachTo = rootOut
		}

		// Push children in reverse so they attach in document order.
		for i := len(item.raw.ChildIDs) - 1; i >= 0; i-- {
			if child := byID[item.raw.ChildIDs[i]]; child != nil {
				work = append(work, workItem{raw: child, parent: attachTo})
			}
		}
	}

	return rootOut
}

// axValueString extracts the string payload of an AXValue.
func axValueString(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := jsonAPI.Unmarshal(v.Value, &s); err != nil {
		// Non-string values (rare for role/name) degrade to their raw JSON.
		return strings.Trim(string(v.Value), `"`)
	}
	return s
}
