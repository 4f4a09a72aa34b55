// Package symbols extracts a types.SymbolTable from a parsed AST by
// walking the tree depth-first, assigning scopes in the same
// deterministic order the walk visits them.
package symbols

import (
	"fmt"
	"regexp"

	"github.com/standardbeagle/plsc/internal/types"
)

type extractor struct {
	table *types.SymbolTable
	pkg   []string // package-name stack for qualified names
	subs  []string // enclosing-subroutine-name stack, for my-variable container tagging
}

// Extract walks tree and returns every declared symbol, every
// reference, and the scope tree they live in. The walk is
// deterministic: scope IDs are assigned in DFS visitation order, so
// two extractions of the same tree always agree on numbering.
func Extract(tree *types.Tree) *types.SymbolTable {
	ex := &extractor{table: types.NewSymbolTable(), pkg: []string{"main"}}
	if tree == nil || len(tree.Nodes) == 0 {
		return ex.table
	}
	ex.walk(tree, tree.Root, types.GlobalScopeID)
	return ex.table
}

func (ex *extractor) currentPackage() string {
	return ex.pkg[len(ex.pkg)-1]
}

func (ex *extractor) qualify(name string) string {
	return ex.currentPackage() + "::" + name
}

// currentContainer is the container_name a symbol declared right now
// would be tagged with: the nearest enclosing named subroutine if
// we're inside one, otherwise the enclosing package.
func (ex *extractor) currentContainer() string {
	if len(ex.subs) > 0 {
		return ex.subs[len(ex.subs)-1]
	}
	return ex.currentPackage()
}

func (ex *extractor) walk(tree *types.Tree, id types.NodeID, scope types.ScopeID) {
	if id == types.InvalidNodeID || int(id) >= len(tree.Nodes) {
		return
	}
	n := tree.Node(id)

	switch n.Kind {
	case types.NodeProgram, types.NodeBlock:
		// A `package Name;` statement stays in effect until the end of
		// the enclosing block or file.
		depth := len(ex.pkg)
		for _, c := range n.Children {
			ex.walk(tree, c, scope)
		}
		ex.pkg = ex.pkg[:depth]

	case types.NodePackage:
		container := ex.currentContainer()
		ex.pkg = append(ex.pkg, n.Name)
		ex.table.AddSymbol(types.Symbol{
			Name: n.Name, QualifiedName: n.Name, Kind: types.SymbolPackage,
			Location: n.Location, ScopeID: scope, Container: container,
		})
		if n.Body != types.InvalidNodeID {
			inner := ex.table.PushScope(scope, types.ScopePackage, n.Location)
			ex.walk(tree, n.Body, inner)
			ex.pkg = ex.pkg[:len(ex.pkg)-1]
		}

	case types.NodeClass:
		ex.table.AddSymbol(types.Symbol{
			Name: n.Name, QualifiedName: ex.qualify(n.Name), Kind: types.SymbolPackage,
			Location: n.Location, ScopeID: scope, Container: ex.currentContainer(),
		})
		// A `class Name { ... }` body is itself a package: methods and
		// fields declared inside qualify against Name, not the
		// enclosing package.
		ex.pkg = append(ex.pkg, n.Name)
		if n.Body != types.InvalidNodeID {
			inner := ex.table.PushScope(scope, types.ScopePackage, n.Location)
			ex.walk(tree, n.Body, inner)
		}
		ex.pkg = ex.pkg[:len(ex.pkg)-1]

	case types.NodeSubroutine, types.NodeMethod:
		if n.Name != "" {
			ex.table.AddSymbol(types.Symbol{
				Name: n.Name, QualifiedName: ex.qualify(n.Name), Kind: types.SymbolSubroutine,
				Location: n.Location, ScopeID: scope, Container: ex.currentContainer(),
			})
			ex.subs = append(ex.subs, n.Name)
		}
		inner := ex.table.PushScope(scope, types.ScopeSubroutine, n.Location)
		for _, param := range n.Params {
			ex.walk(tree, param, inner)
		}
		if n.Body != types.InvalidNodeID {
			ex.walk(tree, n.Body, inner)
		}
		if n.Name != "" {
			ex.subs = ex.subs[:len(ex.subs)-1]
		}

	case types.NodeAnonSub:
		inner := ex.table.PushScope(scope, types.ScopeSubroutine, n.Location)
		for _, param := range n.Params {
			ex.walk(tree, param, inner)
		}
		if n.Body != types.InvalidNodeID {
			ex.walk(tree, n.Body, inner)
		}

	case types.NodeSignatureParam:
		ex.table.AddSymbol(types.Symbol{
			Name: n.Name, QualifiedName: n.Name, Kind: symbolKindForSigil(n.Sigil),
			Location: n.Location, ScopeID: scope, Declaration: types.DeclarationMy,
			Container: ex.currentContainer(),
		})
		ex.walk(tree, n.Init, scope)

	case types.NodeVariableDeclaration:
		ex.declareVariable(tree, n.Left, scope, n.Declaration)
		ex.walk(tree, n.Init, scope)

	case types.NodeVariable:
		if n.Declaration != types.DeclarationNone {
			ex.table.AddSymbol(types.Symbol{
				Name: n.Name, QualifiedName: ex.qualify(n.Name), Kind: symbolKindForSigil(n.Sigil),
				Location: n.Location, ScopeID: scope, Declaration: n.Declaration,
				Container: ex.currentContainer(),
			})
		} else {
			ex.table.AddReference(types.SymbolReference{
				Name: n.Name, Kind: symbolKindForSigil(n.Sigil), Location: n.Location, ScopeID: scope,
			})
		}

	case types.NodeLabel:
		ex.table.AddSymbol(types.Symbol{
			Name: n.Name, QualifiedName: n.Name, Kind: types.SymbolLabel,
			Location: n.Location, ScopeID: scope, Container: ex.currentContainer(),
		})
		ex.walk(tree, n.Body, scope)

	case types.NodeLoopControl:
		if n.Label != "" {
			ex.table.AddReference(types.SymbolReference{
				Name: n.Label, Kind: types.SymbolLabel, Location: n.Location, ScopeID: scope,
			})
		}

	case types.NodeFormat:
		ex.table.AddSymbol(types.Symbol{
			Name: n.Name, QualifiedName: ex.qualify(n.Name), Kind: types.SymbolFormat,
			Location: n.Location, ScopeID: scope, Container: ex.currentContainer(),
		})

	case types.NodeUse:
		if n.Name == "constant" {
			ex.extractConstants(tree, n.Init, scope)
		}

	case types.NodeInterpolatedString, types.NodeHeredoc:
		ex.scanInterpolation(n.Value, n.Location, scope)

	case types.NodeIf:
		ex.walk(tree, n.Cond, scope)
		ex.walkChildScope(tree, n.Then, scope, types.ScopeBlock)
		for _, e := range n.Elsifs {
			ex.walk(tree, e.Cond, scope)
			ex.walkChildScope(tree, e.Then, scope, types.ScopeBlock)
		}
		if n.Else != types.InvalidNodeID {
			ex.walkChildScope(tree, n.Else, scope, types.ScopeBlock)
		}

	case types.NodeWhile, types.NodeUntil, types.NodeGiven, types.NodeWhen, types.NodeDefault:
		ex.walk(tree, n.Cond, scope)
		ex.walkChildScope(tree, n.Body, scope, types.ScopeBlock)

	case types.NodeFor:
		inner := ex.table.PushScope(scope, types.ScopeBlock, n.Location)
		ex.walk(tree, n.Init, inner)
		ex.walk(tree, n.Cond, inner)
		ex.walk(tree, n.Update, inner)
		ex.walk(tree, n.Body, inner)

	case types.NodeForeach:
		inner := ex.table.PushScope(scope, types.ScopeBlock, n.Location)
		ex.walk(tree, n.Init, inner)
		ex.walk(tree, n.Left, inner)
		ex.walk(tree, n.Body, inner)

	case types.NodeTry:
		ex.walkChildScope(tree, n.Body, scope, types.ScopeEval)
		for _, c := range n.CatchBlocks {
			inner := ex.table.PushScope(scope, types.ScopeEval, n.Location)
			if c.Variable != "" {
				ex.table.AddSymbol(types.Symbol{
					Name: c.Variable, QualifiedName: c.Variable, Kind: types.SymbolScalarVar,
					Location: n.Location, ScopeID: inner, Declaration: types.DeclarationMy,
					Container: ex.currentContainer(),
				})
			}
			ex.walk(tree, c.Body, inner)
		}
		if n.Finally != types.InvalidNodeID {
			ex.walkChildScope(tree, n.Finally, scope, types.ScopeBlock)
		}

	case types.NodeStatementModifier:
		ex.walk(tree, n.Cond, scope)
		ex.walk(tree, n.Body, scope)

	case types.NodeFunctionCall:
		if n.Name != "" {
			ex.table.AddReference(types.SymbolReference{
				Name: n.Name, Kind: types.SymbolSubroutine, Location: n.Location, ScopeID: scope,
			})
		} else {
			// Only a call on a coderef expression sets Object.
			ex.walk(tree, n.Object, scope)
		}
		for _, c := range n.Children {
			ex.walk(tree, c, scope)
		}

	case types.NodeMethodCall:
		ex.walk(tree, n.Object, scope)
		for _, c := range n.Children {
			ex.walk(tree, c, scope)
		}

	case types.NodeBinary, types.NodeAssignment, types.NodeRange:
		ex.walk(tree, n.Left, scope)
		ex.walk(tree, n.Right, scope)

	case types.NodeUnary:
		ex.walk(tree, n.Init, scope)

	case types.NodeTernary:
		ex.walk(tree, n.Cond, scope)
		ex.walk(tree, n.Then, scope)
		ex.walk(tree, n.Else, scope)

	case types.NodeSubscript, types.NodeHashSubscript, types.NodeDereference:
		ex.walk(tree, n.Object, scope)
		ex.walk(tree, n.Init, scope)

	case types.NodeArrayLiteral, types.NodeHashLiteral, types.NodeListExpr:
		for _, c := range n.Children {
			ex.walk(tree, c, scope)
		}

	case types.NodeReturn:
		ex.walk(tree, n.Init, scope)

	default:
		// Terminal node kinds (String, Number, Bareword, Regex, ...)
		// carry no children to recurse into.
	}
}

func (ex *extractor) walkChildScope(tree *types.Tree, id types.NodeID, parent types.ScopeID, kind types.ScopeKind) {
	if id == types.InvalidNodeID {
		return
	}
	inner := ex.table.PushScope(parent, kind, tree.Node(id).Location)
	ex.walk(tree, id, inner)
}

// declareVariable records one or more declared symbols from the LHS of
// a VariableDeclaration: either a single Variable node, or a ListExpr
// of Variable nodes for destructuring declarations like `my ($a, $b)`.
func (ex *extractor) declareVariable(tree *types.Tree, id types.NodeID, scope types.ScopeID, declKind types.DeclarationKind) {
	if id == types.InvalidNodeID {
		return
	}
	n := tree.Node(id)
	if n.Kind == types.NodeListExpr {
		for _, c := range n.Children {
			ex.declareVariable(tree, c, scope, declKind)
		}
		return
	}
	if n.Kind != types.NodeVariable {
		return
	}
	qn := n.Name
	if declKind == types.DeclarationOur {
		qn = ex.qualify(n.Name)
	}
	ex.table.AddSymbol(types.Symbol{
		Name: n.Name, QualifiedName: qn, Kind: symbolKindForSigil(n.Sigil),
		Location: n.Location, ScopeID: scope, Declaration: declKind, Attributes: n.Attributes,
		Container: ex.currentContainer(),
	})
}

// extractConstants walks a `use constant` argument expression, which is
// either a single `NAME => VALUE` pair or a `{ NAME => VALUE, ... }`
// hash literal of pairs, and records one Constant symbol per pair.
func (ex *extractor) extractConstants(tree *types.Tree, id types.NodeID, scope types.ScopeID) {
	if id == types.InvalidNodeID {
		return
	}
	n := tree.Node(id)
	switch n.Kind {
	case types.NodeHashLiteral, types.NodeListExpr:
		for _, c := range n.Children {
			ex.extractConstants(tree, c, scope)
		}
	case types.NodeAssignment:
		if n.Operator == "=>" {
			ex.addConstant(tree, n.Left, scope)
		}
	}
}

func (ex *extractor) addConstant(tree *types.Tree, id types.NodeID, scope types.ScopeID) {
	if id == types.InvalidNodeID {
		return
	}
	n := tree.Node(id)
	var name string
	switch n.Kind {
	case types.NodeBareword:
		name = n.Value
	case types.NodeString:
		name = unquote(n.Value)
	case types.NodeFunctionCall:
		name = n.Name
	default:
		return
	}
	if name == "" {
		return
	}
	ex.table.AddSymbol(types.Symbol{
		Name: name, QualifiedName: ex.qualify(name), Kind: types.SymbolConstant,
		Location: n.Location, ScopeID: scope, Container: ex.currentContainer(),
	})
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// interpolationVar matches a scalar, array, or hash variable reference
// inside an interpolated string or heredoc body: `$name`, `${name}`,
// `@name`, `@{name}`, optionally package-qualified (`$Foo::bar`).
var interpolationVar = regexp.MustCompile(`[$@]\{?([A-Za-z_][A-Za-z0-9_]*(?:::[A-Za-z_][A-Za-z0-9_]*)*)\}?`)

// scanInterpolation records a SymbolReference for every `$name`/`@name`
// (braced or bare) occurrence inside raw, an interpolated string or
// heredoc's literal source text. Locations are approximate: the scanner
// doesn't re-lex escape sequences, so an offset is only as accurate as
// raw's byte alignment with loc, which holds for the common case of an
// unescaped variable reference.
func (ex *extractor) scanInterpolation(raw string, loc types.SourceLocation, scope types.ScopeID) {
	for _, m := range interpolationVar.FindAllStringSubmatchIndex(raw, -1) {
		name := raw[m[2]:m[3]]
		sigil := types.SigilScalar
		if raw[m[0]] == '@' {
			sigil = types.SigilArray
		}
		start := loc.Start + m[0]
		end := loc.Start + m[1]
		if end > loc.End {
			end = loc.End
		}
		ex.table.AddReference(types.SymbolReference{
			Name: name, Kind: symbolKindForSigil(sigil),
			Location: types.SourceLocation{Start: start, End: end}, ScopeID: scope,
		})
	}
}

func symbolKindForSigil(s types.Sigil) types.SymbolKind {
	switch s {
	case types.SigilArray:
		return types.SymbolArrayVar
	case types.SigilHash:
		return types.SymbolHashVar
	case types.SigilSub:
		return types.SymbolSubroutine
	default:
		return types.SymbolScalarVar
	}
}

// FindSymbol locates every declared symbol named name visible from
// fromScope, in DFS scope-chain order (innermost declaring scope first).
func FindSymbol(table *types.SymbolTable, name string, fromScope types.ScopeID, kind types.SymbolKind) []types.Symbol {
	return table.FindSymbol(name, fromScope, kind, true)
}

// FindReferences locates every reference to sym visible from its
// declaring scope downward.
func FindReferences(table *types.SymbolTable, sym types.Symbol) []types.SymbolReference {
	return table.FindReferences(sym)
}

// Stats summarizes one extraction for logging and workspace index
// bookkeeping.
type Stats struct {
	SymbolCount int
	ScopeCount  int
}

// Summarize counts every declared symbol across every name bucket.
func Summarize(table *types.SymbolTable) Stats {
	count := 0
	for _, syms := range table.Symbols {
		count += len(syms)
	}
	return Stats{SymbolCount: count, ScopeCount: len(table.Scopes)}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d symbols across %d scopes", s.SymbolCount, s.ScopeCount)
}
