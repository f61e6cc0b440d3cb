// File: internal/browser/axtree_test.go
package browser

import (
	"fmt"
	"testing"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func axValue(s string) *accessibility.Value {
	return &accessibility.Value{
		Type:  accessibility.ValueTypeString,
		Value: jsontext.Value(fmt.Sprintf("%q", s)),
	}
}

func axNode(id, parent string, role, name string, children ...string) *accessibility.Node {
	node := &accessibility.Node{
		NodeID:   accessibility.NodeID(id),
		ParentID: accessibility.NodeID(parent),
		Role:     axValue(role),
		Name:     axValue(name),
	}
	for _, child := range children {
		node.ChildIDs = append(node.ChildIDs, accessibility.NodeID(child))
	}
	return node
}

func TestBuildAXTree_Empty(t *testing.T) {
	assert.Nil(t, BuildAXTree(nil))
	assert.Nil(t, BuildAXTree([]*accessibility.Node{}))
}

func TestBuildAXTree_NestsFlatList(t *testing.T) {
	nodes := []*accessibility.Node{
		axNode("1", "", "RootWebArea", "Example", "2", "3"),
		axNode("2", "1", "heading", "Title"),
		axNode("3", "1", "paragraph", "", "4"),
		axNode("4", "3", "StaticText", "Body text"),
	}

	tree := BuildAXTree(nodes)
	require.NotNil(t, tree)
	assert.Equal(t, "RootWebArea", tree.Role)
	assert.Equal(t, "Example", tree.Name)
	require.Len(t, tree.Children, 2)

	assert.Equal(t, "heading", tree.Children[0].Role)
	assert.Equal(t, "Title", tree.Children[0].Name)

	para := tree.Children[1]
	assert.Equal(t, "paragraph", para.Role)
	require.Len(t, para.Children, 1)
	assert.Equal(t, "Body text", para.Children[0].Name)
}

func TestBuildAXTree_LiftsIgnoredNodeChildren(t *testing.T) {
	nodes := []*accessibility.Node{
		axNode("1", "", "RootWebArea", "", "2"),
		axNode("2", "1", "GenericContainer", "", "3", "4"),
		axNode("3", "2", "link", "First"),
		axNode("4", "2", "link", "Second"),
	}
	nodes[1].Ignored = true

	tree := BuildAXTree(nodes)
	require.NotNil(t, tree)

	// The ignored container vanishes; its links belong to the root now, still
	// in document order.
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "First", tree.Children[0].Name)
	assert.Equal(t, "Second", tree.Children[1].Name)
}

func TestBuildAXTree_IgnoredRoot(t *testing.T) {
	nodes := []*accessibility.Node{
		axNode("1", "", "RootWebArea", "", "2"),
		axNode("2", "1", "main", ""),
	}
	nodes[0].Ignored = true

	tree := BuildAXTree(nodes)
	require.NotNil(t, tree)
	assert.Equal(t, "ignored", tree.Role)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "main", tree.Children[0].Role)
}

func TestBuildAXTree_DanglingChildID(t *testing.T) {
	nodes := []*accessibility.Node{
		axNode("1", "", "RootWebArea", "", "2", "99"),
		axNode("2", "1", "heading", "Kept"),
	}

	tree := BuildAXTree(nodes)
	require.NotNil(t, tree)
	require.Len(t, tree.Children, 1, "unknown child ids are skipped")
	assert.Equal(t, "Kept", tree.Children[0].Name)
}

func TestBuildAXTree_RootNotFirst(t *testing.T) {
	nodes := []*accessibility.Node{
		axNode("2", "1", "heading", "Title"),
		axNode("1", "", "RootWebArea", "", "2"),
	}

	tree := BuildAXTree(nodes)
	require.NotNil(t, tree)
	assert.Equal(t, "RootWebArea", tree.Role)
	require.Len(t, tree.Children, 1)
}

func TestAXValueString(t *testing.T) {
	assert.Equal(t, "button", axValueString(axValue("button")))
	assert.Equal(t, "", axValueString(nil))
	assert.Equal(t, "", axValueString(&accessibility.Value{}))

	// Non-string payloads degrade to trimmed raw JSON.
	raw := &accessibility.Value{Value: jsontext.Value("42")}
	assert.Equal(t, "42", axValueString(raw))
}
