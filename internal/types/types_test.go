package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceLocationContains(t *testing.T) {
	outer := SourceLocation{Start: 0, End: 100}
	inner := SourceLocation{Start: 10, End: 20}
	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
}

func TestSourceLocationIntersects(t *testing.T) {
	a := SourceLocation{Start: 0, End: 10}
	b := SourceLocation{Start: 5, End: 15}
	c := SourceLocation{Start: 20, End: 30}
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}

func TestPositionLess(t *testing.T) {
	a := Position{Line: 1, Character: 5}
	b := Position{Line: 1, Character: 10}
	c := Position{Line: 2, Character: 0}
	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
}

func TestSymbolTablePushScopeAndDescendant(t *testing.T) {
	table := NewSymbolTable()
	root := table.PushScope(GlobalScopeID, ScopePackage, SourceLocation{})
	child := table.PushScope(root, ScopeBlock, SourceLocation{})
	grandchild := table.PushScope(child, ScopeBlock, SourceLocation{})

	assert.True(t, table.IsDescendant(grandchild, root))
	assert.True(t, table.IsDescendant(child, root))
	assert.False(t, table.IsDescendant(root, grandchild))
}

func TestSymbolTableAddAndFindSymbol(t *testing.T) {
	table := NewSymbolTable()
	scope := table.PushScope(GlobalScopeID, ScopePackage, SourceLocation{})
	table.AddSymbol(Symbol{Name: "x", Kind: SymbolScalarVar, ScopeID: scope})

	found := table.FindSymbol("x", scope, SymbolScalarVar, true)
	assert.Len(t, found, 1)
	assert.Equal(t, "x", found[0].Name)

	missing := table.FindSymbol("y", scope, SymbolScalarVar, true)
	assert.Empty(t, missing)
}

func TestSymbolTableAddAndFindReferences(t *testing.T) {
	table := NewSymbolTable()
	scope := table.PushScope(GlobalScopeID, ScopePackage, SourceLocation{})
	sym := Symbol{Name: "x", Kind: SymbolScalarVar, ScopeID: scope}
	table.AddSymbol(sym)
	table.AddReference(SymbolReference{Name: "x", Kind: SymbolScalarVar, ScopeID: scope})

	refs := table.FindReferences(sym)
	assert.Len(t, refs, 1)
}

func TestTreeAddAndNode(t *testing.T) {
	tree := NewTree()
	id := tree.Add(Node{Kind: NodeNumber, Value: "42"})
	got := tree.Node(id)
	assert.Equal(t, NodeNumber, got.Kind)
	assert.Equal(t, "42", got.Value)
}
