// File: internal/blocks/grouper.go

// Package blocks collapses a flat forest of link and text leaves into
// coherent blocks, each representing one semantically self-contained item
// such as a single search-result card.
//
// The grouping works bottom-up: starting from every link in the working
// subtree, climb parent pointers until the lowest ancestor still exclusive to
// that link cluster is found. Links that share an item (a title link plus a
// "read more" link) resolve to the same block.
package blocks

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
)

// Grouper extracts block-level structure from accessibility trees.
type Grouper struct {
	logger *zap.Logger
}

// New creates a grouper.
func New(logger *zap.Logger) *Grouper {
	return &Grouper{logger: logger.Named("blocks")}
}

// FindWorkingRoot locates the true content container of a page.
//
// It looks for the "main" landmark and, independently, for the first
// header-like node whose name contains headerLabel. The header announces a
// results section, so its direct parent is the actual results container -- but
// only when the header genuinely sits inside main; a header outside main is
// boilerplate noise and main itself wins. With no header match at all, main
// (or nil) is returned.
func (g *Grouper) FindWorkingRoot(tree *schemas.AccessibilityNode, headerLabel string) *schemas.AccessibilityNode {
	if tree == nil {
		return nil
	}

	parents := buildParentMap(tree)

	var mainNode, headerNode *schemas.AccessibilityNode

	// Pre-order walk with an explicit stack; the first matching header in
	// document order wins.
	stack := []*schemas.AccessibilityNode{tree}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if mainNode == nil && node.Role == "main" {
			mainNode = node
		}
		if headerNode == nil && isHeaderRole(node.Role) && strings.Contains(node.Name, headerLabel) {
			headerNode = node
		}
		if mainNode != nil && headerNode != nil {
			break
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			if node.Children[i] != nil {
				stack = append(stack, node.Children[i])
			}
		}
	}

	if headerNode == nil {
		return mainNode
	}
	if mainNode == nil || !isDescendant(parents, headerNode, mainNode) {
		g.logger.Debug("Header match outside main landmark; falling back to main",
			zap.String("header", headerNode.Name))
		return mainNode
	}
	return parents[headerNode]
}

// ExtractBlocks returns the minimal enclosing block for every link cluster
// under workingRoot. Each block is emitted at most once, in the order its
// first link was encountered.
func (g *Grouper) ExtractBlocks(workingRoot *schemas.AccessibilityNode) []*schemas.AccessibilityNode {
	if workingRoot == nil {
		return nil
	}

	parents := buildParentMap(workingRoot)
	links := collectLinks(workingRoot)

	seen := make(map[*schemas.AccessibilityNode]bool)
	var result []*schemas.AccessibilityNode
	emit := func(node *schemas.AccessibilityNode) {
		if !seen[node] {
			seen[node] = true
			result = append(result, node)
		}
	}

	for _, link := range links {
		current := link
		for {
			// Reached the top of the working subtree: the climbed node is the
			// block.
			if current == workingRoot {
				emit(current)
				break
			}
			parent := parents[current]
			if parent == nil {
				emit(current)
				break
			}

			// A sibling link at the parent level means the parent is shared
			// between clusters; current is the lowest ancestor still exclusive
			// to this one.
			if hasSiblingLink(parent, current) {
				emit(current)
				break
			}

			// The parent being the working root ends the climb regardless of
			// sibling links.
			if parent == workingRoot {
				emit(current)
				break
			}

			current = parent
		}
	}

	g.logger.Debug("Extracted blocks", zap.Int("links", len(links)), zap.Int("blocks", len(result)))
	return result
}

// buildParentMap records each node's parent across the whole subtree, using
// an explicit stack so tree depth never grows the call stack.
func buildParentMap(root *schemas.AccessibilityNode) map[*schemas.AccessibilityNode]*schemas.AccessibilityNode {
	parents := make(map[*schemas.AccessibilityNode]*schemas.AccessibilityNode)
	stack := []*schemas.AccessibilityNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range node.Children {
			if child == nil {
				continue
			}
			parents[child] = node
			stack = append(stack, child)
		}
	}
	return parents
}

// collectLinks gathers every link-role node under root in document order.
func collectLinks(root *schemas.AccessibilityNode) []*schemas.AccessibilityNode {
	var links []*schemas.AccessibilityNode
	stack := []*schemas.AccessibilityNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.Role == "link" {
			links = append(links, node)
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			if node.Children[i] != nil {
				stack = append(stack, node.Children[i])
			}
		}
	}
	return links
}

// hasSiblingLink reports whether parent has a direct child, other than
// current, that is itself a link.
func hasSiblingLink(parent, current *schemas.AccessibilityNode) bool {
	for _, sibling := range parent.Children {
		if sibling != nil && sibling != current && sibling.Role == "link" {
			return true
		}
	}
	return false
}

// isDescendant walks parent pointers from node looking for ancestor.
func isDescendant(parents map[*schemas.AccessibilityNode]*schemas.AccessibilityNode, node, ancestor *schemas.AccessibilityNode) bool {
	for p := parents[node]; p != nil; p = parents[p] {
		if p == ancestor {
			return true
		}
	}
	return false
}

// isHeaderRole matches the header-like roles a results announcement can use.
func isHeaderRole(role string) bool {
	return role == "header" || role == "heading"
}
