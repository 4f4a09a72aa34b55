package incremental

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/plsc/internal/parser"
	"github.com/standardbeagle/plsc/internal/types"
)

// TestReparseSingleCharacterInsert: inserting a single character into
// the first of two declarations should reuse the second declaration's
// subtree rather than reparsing the whole file.
func TestReparseSingleCharacterInsert(t *testing.T) {
	prevSource := []byte("my $x = 1;\nmy $y = 2;\n")
	newSource := []byte("my $x = 10;\nmy $y = 2;\n")

	prevResult, err := parser.Parse(prevSource)
	require.NoError(t, err)
	require.Empty(t, prevResult.Errors)

	edit := types.Edit{
		OldByteStart: 9,
		OldByteEnd:   9,
		NewByteEnd:   10,
	}

	result, metrics := Reparse(prevResult.Tree, prevSource, edit, newSource)
	require.NotNil(t, result.Tree)
	require.Empty(t, result.Errors)

	full, err := parser.Parse(newSource)
	require.NoError(t, err)
	require.Equal(t, treeShape(full.Tree), treeShape(result.Tree))

	require.LessOrEqual(t, metrics.NodesReparsed, countTreeNodes(full.Tree)/2+1)
}

// TestReparseEditInsideBlockFallsBack: a damage region that stops at an
// inner `;` covers only part of the enclosing subroutine, so splicing
// would lose the subroutine wrapper. The engine must fall back to a
// full reparse and keep the tree identical to a from-scratch parse.
func TestReparseEditInsideBlockFallsBack(t *testing.T) {
	prevSource := []byte("sub f {\n    my $x = 1;\n}\n")
	newSource := []byte("sub f {\n    my $x = 2;\n}\n")

	prevResult, err := parser.Parse(prevSource)
	require.NoError(t, err)
	require.Empty(t, prevResult.Errors)

	// Replace the `1` with `2`.
	off := len("sub f {\n    my $x = ")
	edit := types.Edit{OldByteStart: off, OldByteEnd: off + 1, NewByteEnd: off + 1}

	result, _ := Reparse(prevResult.Tree, prevSource, edit, newSource)
	require.NotNil(t, result.Tree)

	full, err := parser.Parse(newSource)
	require.NoError(t, err)
	require.Equal(t, treeShape(full.Tree), treeShape(result.Tree))

	var sawSub bool
	for _, n := range result.Tree.Nodes {
		if n.Kind == types.NodeSubroutine && n.Name == "f" {
			sawSub = true
		}
	}
	require.True(t, sawSub, "the enclosing subroutine must survive the reparse")
}

// TestReparseFallsBackOnHeredoc exercises the fallback trigger: a prior
// tree containing a heredoc always triggers a full re-parse.
func TestReparseFallsBackOnHeredoc(t *testing.T) {
	prevSource := []byte("my $t = <<'END';\nhello\nEND\nmy $y = 1;\n")
	newSource := []byte("my $t = <<'END';\nhello\nEND\nmy $y = 2;\n")

	prevResult, err := parser.Parse(prevSource)
	require.NoError(t, err)

	edit := types.Edit{OldByteStart: len(prevSource) - 3, OldByteEnd: len(prevSource) - 2, NewByteEnd: len(prevSource) - 2}
	result, metrics := Reparse(prevResult.Tree, prevSource, edit, newSource)
	require.NotNil(t, result.Tree)
	require.Equal(t, 0, metrics.NodesReused)

	full, err := parser.Parse(newSource)
	require.NoError(t, err)
	require.Equal(t, treeShape(full.Tree), treeShape(result.Tree))
}

func countTreeNodes(tree *types.Tree) int {
	if tree == nil {
		return 0
	}
	return len(tree.Nodes)
}

// treeShape projects a tree onto its structural shape (kinds in arena
// order), excluding node identity and reuse bookkeeping, so a
// reparsed tree can be compared against a from-scratch parse for
// equivalence.
func treeShape(tree *types.Tree) []types.NodeKind {
	if tree == nil {
		return nil
	}
	shape := make([]types.NodeKind, len(tree.Nodes))
	for i, n := range tree.Nodes {
		shape[i] = n.Kind
	}
	return shape
}
