package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/plsc/internal/antipattern"
	"github.com/standardbeagle/plsc/internal/types"
)

func parse(t *testing.T, src string) *types.Tree {
	t.Helper()
	result, err := Parse([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, result.Tree)
	return result.Tree
}

func TestParseProgramRoot(t *testing.T) {
	tree := parse(t, "my $x = 1;\n")
	require.NotEqual(t, types.InvalidNodeID, tree.Root)
	root := tree.Node(tree.Root)
	assert.Equal(t, types.NodeProgram, root.Kind)
	assert.NotEmpty(t, root.Children)
}

func TestParsePackageAndSubroutine(t *testing.T) {
	tree := parse(t, "package Foo::Bar;\nsub greet { return 1; }\n")
	root := tree.Node(tree.Root)
	var sawPackage, sawSub bool
	for _, id := range root.Children {
		n := tree.Node(id)
		switch n.Kind {
		case types.NodePackage:
			sawPackage = true
			assert.Equal(t, "Foo::Bar", n.Name)
		case types.NodeSubroutine:
			sawSub = true
			assert.Equal(t, "greet", n.Name)
		}
	}
	assert.True(t, sawPackage, "expected a package node")
	assert.True(t, sawSub, "expected a subroutine node")
}

func TestParseHashLiteralFatArrow(t *testing.T) {
	tree := parse(t, "my %h = (foo => 1, bar => 2);\n")
	var hash *types.Node
	for i := range tree.Nodes {
		if tree.Nodes[i].Kind == types.NodeHashLiteral {
			hash = &tree.Nodes[i]
			break
		}
	}
	require.NotNil(t, hash, "expected a hash literal node")
	require.Len(t, hash.Children, 2)
	for _, pairID := range hash.Children {
		pair := tree.Node(pairID)
		assert.Equal(t, types.NodeAssignment, pair.Kind)
		assert.Equal(t, "=>", pair.Operator)
	}
}

func TestParseCallArgsWithFatArrow(t *testing.T) {
	tree := parse(t, "foo(a => 1, b => 2);\n")
	var call *types.Node
	for i := range tree.Nodes {
		if tree.Nodes[i].Kind == types.NodeFunctionCall {
			call = &tree.Nodes[i]
			break
		}
	}
	require.NotNil(t, call, "expected a function call node")
	require.Len(t, call.Children, 2)
	for _, argID := range call.Children {
		arg := tree.Node(argID)
		assert.Equal(t, types.NodeAssignment, arg.Kind)
		assert.Equal(t, "=>", arg.Operator)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	// 1 + 2 * 3 must bind as 1 + (2 * 3), not (1 + 2) * 3.
	tree := parse(t, "my $x = 1 + 2 * 3;\n")
	var top *types.Node
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		if n.Kind == types.NodeBinary && n.Operator == "+" {
			top = n
			break
		}
	}
	require.NotNil(t, top, "expected a top-level + node")
	rhs := tree.Node(top.Right)
	assert.Equal(t, types.NodeBinary, rhs.Kind)
	assert.Equal(t, "*", rhs.Operator)
}

func TestParseUseConstantCapturesInit(t *testing.T) {
	tree := parse(t, "use constant PI => 3.14159;\n")
	var use *types.Node
	for i := range tree.Nodes {
		if tree.Nodes[i].Kind == types.NodeUse {
			use = &tree.Nodes[i]
			break
		}
	}
	require.NotNil(t, use, "expected a use node")
	assert.Equal(t, "constant", use.Name)
	assert.NotEqual(t, types.InvalidNodeID, use.Init)
	init := tree.Node(use.Init)
	assert.Equal(t, types.NodeAssignment, init.Kind)
	assert.Equal(t, "=>", init.Operator)
}

func TestParseRecoversFromSyntaxError(t *testing.T) {
	result, err := Parse([]byte("sub broken( {\nsub ok { return 1; }\n"))
	require.NoError(t, err)
	require.NotNil(t, result.Tree)
	// The parser should still surface the second, well-formed sub.
	var sawOk bool
	for _, n := range result.Tree.Nodes {
		if n.Kind == types.NodeSubroutine && n.Name == "ok" {
			sawOk = true
		}
	}
	assert.True(t, sawOk, "expected recovery to reach the second subroutine")
}

// childIDs enumerates the child references a node carries across all
// payload fields. Unused NodeID fields sit at their zero value, which
// aliases node 0, so ID 0 is skipped here: a genuine first-leaf child
// is simply not containment-checked rather than risking a false
// positive on every node.
func childIDs(n *types.Node) []types.NodeID {
	var ids []types.NodeID
	add := func(id types.NodeID) {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	for _, id := range n.Children {
		add(id)
	}
	for _, id := range n.Params {
		add(id)
	}
	add(n.Left)
	add(n.Right)
	add(n.Cond)
	add(n.Then)
	add(n.Else)
	add(n.Body)
	add(n.Object)
	add(n.Init)
	add(n.Update)
	add(n.Finally)
	for _, e := range n.Elsifs {
		add(e.Cond)
		add(e.Then)
	}
	for _, c := range n.CatchBlocks {
		add(c.Body)
	}
	return ids
}

func TestLocationSoundnessAndContainment(t *testing.T) {
	sources := []string{
		"my $x = 42;\nprint $x;\n",
		"sub foo { return $_[0] + 1 } foo(41);",
		"package Foo;\nsub bar { my ($a, $b) = @_; return $a * $b; }\n",
		"if ($x > 1) { print 1; } elsif ($x < 0) { print 2; } else { print 3; }\n",
		"foreach my $i (1..10) { push @out, $i * 2; }\n",
		"try { risky(); } catch ($e) { warn $e; } finally { cleanup(); }\n",
		"my %h = (a => 1, b => [2, 3]);\n$h{a} = $h{b}[0];\n",
		"while (<$fh>) { chomp; next if /^#/; }\n",
	}

	for _, src := range sources {
		result, err := Parse([]byte(src))
		require.NoError(t, err, "source: %s", src)
		tree := result.Tree
		for i := range tree.Nodes {
			n := &tree.Nodes[i]
			assert.GreaterOrEqual(t, n.Location.Start, 0, "source: %s node %d", src, i)
			assert.LessOrEqual(t, n.Location.Start, n.Location.End, "source: %s node %d", src, i)
			assert.LessOrEqual(t, n.Location.End, len(src), "source: %s node %d", src, i)

			if n.Kind == types.NodeError {
				continue
			}
			for _, childID := range childIDs(n) {
				child := tree.Node(childID)
				assert.LessOrEqual(t, n.Location.Start, child.Location.Start,
					"source: %s parent %s child %s", src, n.Kind, child.Kind)
				assert.GreaterOrEqual(t, n.Location.End, child.Location.End,
					"source: %s parent %s child %s", src, n.Kind, child.Kind)
			}
		}
	}
}

func TestParseBeginTimeHeredocDiagnostic(t *testing.T) {
	src := "BEGIN { my $cfg = <<'END';\nhello\nEND\n}"
	result, diags, err := ParseWithAntiPatterns([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, result.Tree)

	require.Len(t, diags, 1)
	assert.Equal(t, antipattern.PatternBeginTimeHeredoc, diags[0].Pattern)
	assert.Equal(t, antipattern.SeverityError, diags[0].Severity)

	// The BEGIN block still parses, with the heredoc inside it.
	var sawHeredoc bool
	for _, n := range result.Tree.Nodes {
		if n.Kind == types.NodeHeredoc {
			sawHeredoc = true
		}
	}
	assert.True(t, sawHeredoc, "expected a heredoc node inside the BEGIN block")
}

func TestParseDynamicHeredocDelimiterDiagnostic(t *testing.T) {
	src := "my $d = \"EOF\"; my $t = <<$d;\nhi\nEOF\n"
	result, diags, err := ParseWithAntiPatterns([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, result.Tree)

	require.Len(t, diags, 1)
	assert.Equal(t, antipattern.PatternDynamicHeredocDelimiter, diags[0].Pattern)
	assert.Equal(t, antipattern.SeverityError, diags[0].Severity)

	// The dynamic introducer becomes an Error node; the surrounding
	// declarations still parse.
	var errNodes, decls int
	for _, n := range result.Tree.Nodes {
		switch n.Kind {
		case types.NodeError:
			errNodes++
		case types.NodeVariableDeclaration:
			decls++
		}
	}
	assert.GreaterOrEqual(t, errNodes, 1)
	assert.Equal(t, 2, decls)
}

func TestParseSourceFilterDiagnostic(t *testing.T) {
	src := "use Filter::Util::Call;\nmy $x = 1;\n"
	_, diags, err := ParseWithAntiPatterns([]byte(src))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, antipattern.PatternSourceFilter, diags[0].Pattern)
	assert.Equal(t, antipattern.SeverityError, diags[0].Severity)
}

func TestParseStrayCloseBraceRecovers(t *testing.T) {
	// A `}` with no open block mid-edit must not stall the parser; the
	// statements on either side still parse.
	result, err := Parse([]byte("my $x = 1;\n}\nmy $y = 2;\n"))
	require.NoError(t, err)
	require.NotNil(t, result.Tree)
	assert.NotEmpty(t, result.Errors)

	var decls, errNodes int
	for _, n := range result.Tree.Nodes {
		switch n.Kind {
		case types.NodeVariableDeclaration:
			decls++
		case types.NodeError:
			errNodes++
		}
	}
	assert.Equal(t, 2, decls, "declarations on both sides of the stray brace should survive")
	assert.GreaterOrEqual(t, errNodes, 1)
}

func TestParseTernary(t *testing.T) {
	tree := parse(t, "my $x = $a ? 1 : 2;\n")
	var ternary *types.Node
	for i := range tree.Nodes {
		if tree.Nodes[i].Kind == types.NodeTernary {
			ternary = &tree.Nodes[i]
			break
		}
	}
	require.NotNil(t, ternary, "expected a ternary node")
	assert.NotEqual(t, types.InvalidNodeID, ternary.Cond)
	assert.NotEqual(t, types.InvalidNodeID, ternary.Then)
	assert.NotEqual(t, types.InvalidNodeID, ternary.Else)
}
