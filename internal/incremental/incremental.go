// Package incremental implements the reparse engine: given a prior parse,
// the text it was parsed from, an edit, and the new text, it produces a new
// parse that reuses unaffected subtrees instead of reparsing the whole
// file. Reuse is an optimization only - the produced tree must be
// structurally identical to a full re-parse of the new source.
package incremental

import (
	"time"

	"github.com/standardbeagle/plsc/internal/debug"
	"github.com/standardbeagle/plsc/internal/parser"
	"github.com/standardbeagle/plsc/internal/types"
)

// fallbackKinds are the node kinds whose span can never be safely reused
// across an edit that falls inside a broader damage margin: their content
// is not self-delimiting at the lexer level, so any edit touching or
// adjacent to one forces a full re-parse of the file. Heredoc bodies in
// particular carry no nesting marker the damage-region walk could anchor
// on, so there is no partial-heredoc reuse.
var fallbackKinds = map[types.NodeKind]bool{
	types.NodeHeredoc:      true,
	types.NodePodBlock:     true,
	types.NodeDataSection:  true,
	types.NodeSourceFilter: true,
}

// Reparse produces a new parse of newSource, reusing subtrees of prev that
// lie entirely outside the edit's damage region. prevSource is the text
// prev was parsed from; it is used only to validate reuse preconditions
// (the reused span's bytes must be identical in old and new text) and is
// not reparsed itself.
func Reparse(prev *types.Tree, prevSource []byte, edit types.Edit, newSource []byte) (*types.ParseResult, types.ReuseMetrics) {
	start := time.Now()

	if prev == nil || len(prev.Nodes) == 0 || hasFallbackConstruct(prev) {
		debug.LogIncremental("falling back to full reparse: no usable prior tree")
		return fullReparse(newSource, start)
	}

	delta := edit.NewByteEnd - edit.OldByteEnd
	damageStart, damageEnd, ok := damageRegion(prev, edit, newSource)
	if !ok {
		debug.LogIncremental("falling back to full reparse: no stable sync point for damage region")
		return fullReparse(newSource, start)
	}

	result, metrics, ok := splice(prev, prevSource, newSource, delta, damageStart, damageEnd)
	if !ok {
		debug.LogIncremental("falling back to full reparse: reuse precondition failed")
		return fullReparse(newSource, start)
	}
	metrics.ElapsedNanos = time.Since(start).Nanoseconds()
	debug.LogIncremental("reparse reused %d nodes, reparsed %d", metrics.NodesReused, metrics.NodesReparsed)
	return result, metrics
}

// hasFallbackConstruct reports whether tree contains any node whose kind
// forces a full re-parse on any edit (heredoc bodies, POD, __DATA__,
// source filters, package declarations). Reuse must never cross a package
// boundary, since a package statement changes how every subsequent bare
// identifier is qualified; rather than reason about which side of a
// package statement an edit falls on, any package-bearing file is routed
// through a full reparse.
func hasFallbackConstruct(tree *types.Tree) bool {
	for _, n := range tree.Nodes {
		if fallbackKinds[n.Kind] || n.Kind == types.NodePackage {
			return true
		}
	}
	return false
}

// damageRegion computes [d_start, d_end) in newSource: the byte range that
// must be re-lexed and re-parsed. It extends left to the start of the
// enclosing statement and right to a stable sync point (';' or '}' at the
// same nesting). If EOF is reached without a sync point it returns
// ok=false, which forces a full reparse.
func damageRegion(prev *types.Tree, edit types.Edit, newSource []byte) (int, int, bool) {
	start := edit.OldByteStart
	for start > 0 && newSource[start-1] != ';' && newSource[start-1] != '{' && newSource[start-1] != '}' && newSource[start-1] != '\n' {
		start--
	}

	end := edit.NewByteEnd
	depth := 0
	for end < len(newSource) {
		switch newSource[end] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return start, end, true
			}
			depth--
		case ';':
			if depth == 0 {
				return start, end + 1, true
			}
		}
		end++
	}
	// Ran off the end of the file without a sync point: the damage
	// region extends to EOF, which forces a full reparse.
	return 0, 0, false
}

// splice builds T' by cloning prev's top-level statements that fall
// entirely outside [damageStart, damageEnd) into a fresh arena - unshifted
// if they precede the damage region, shifted by delta if they follow it -
// and filling the gap between them with a from-scratch parse of exactly
// newSource[damageStart:damageEnd]. Every node in the returned tree is
// either a byte-identical clone of a prev node (location-shifted), a
// node produced by that one bounded reparse, or the new Program root
// that holds them.
//
// This relies on the parser's construction order: every node is appended
// to its tree only after all of its children have been, so a top-level
// statement's own NodeID is always the largest ID among its descendants,
// and the descendants of consecutive top-level statements occupy
// disjoint, increasing ID ranges. That invariant is what lets a whole
// statement subtree be relocated by cloning a contiguous ID range and
// applying one uniform offset to every NodeID-valued field in it, without
// walking the subtree node by node.
func splice(prev *types.Tree, prevSource, newSource []byte, delta, damageStart, damageEnd int) (*types.ParseResult, types.ReuseMetrics, bool) {
	if damageStart < 0 || damageStart > len(prevSource) || damageStart > len(newSource) {
		return nil, types.ReuseMetrics{}, false
	}
	if len(newSource) != len(prevSource)+delta {
		// The edit's byte accounting doesn't reconcile with the two
		// sources; reused-subtree spans can't be trusted to be
		// byte-identical.
		return nil, types.ReuseMetrics{}, false
	}
	if string(prevSource[:damageStart]) != string(newSource[:damageStart]) {
		return nil, types.ReuseMetrics{}, false
	}
	if int(prev.Root) != len(prev.Nodes)-1 {
		// The root is expected to be the last-added node; a tree that
		// doesn't hold that invariant (e.g. hand-built in a test) can't
		// be spliced by ID-range cloning.
		return nil, types.ReuseMetrics{}, false
	}
	root := prev.Node(prev.Root)
	if root.Kind != types.NodeProgram {
		return nil, types.ReuseMetrics{}, false
	}

	type idRange struct{ lo, hi types.NodeID }
	var before, after []idRange
	lo := types.NodeID(0)
	for _, hi := range root.Children {
		loc := prev.Node(hi).Location
		switch {
		case loc.End <= damageStart:
			before = append(before, idRange{lo, hi})
		case loc.Start+delta >= damageEnd:
			after = append(after, idRange{lo, hi})
		default:
			// The statement overlaps the damage region, so the bounded
			// reparse must replace it wholesale. That is only sound if
			// the region's old-coordinate preimage [damageStart,
			// damageEnd-delta) covers the whole statement; an edit
			// inside a block whose damage region stops at an inner
			// `;`/`}` would otherwise drop the enclosing statement's
			// wrapper and splice in only its re-parsed interior.
			if loc.Start < damageStart || loc.End > damageEnd-delta {
				return nil, types.ReuseMetrics{}, false
			}
		}
		lo = hi + 1
	}

	dest := types.NewTree()
	var children []types.NodeID
	reused := 0
	for _, r := range before {
		children = append(children, appendRange(dest, prev, r.lo, r.hi, 0))
		reused += int(r.hi-r.lo) + 1
	}

	fresh, diags, reparsed, ok := spliceDamagedChunk(dest, newSource, damageStart, damageEnd)
	if !ok {
		return nil, types.ReuseMetrics{}, false
	}
	children = append(children, fresh...)

	for _, r := range after {
		children = append(children, appendRange(dest, prev, r.lo, r.hi, delta))
		reused += int(r.hi-r.lo) + 1
	}

	dest.Root = dest.Add(types.Node{
		Kind:     types.NodeProgram,
		Location: types.SourceLocation{Start: 0, End: len(newSource)},
		Children: children,
	})

	return &types.ParseResult{Tree: dest, Errors: diags}, types.ReuseMetrics{NodesReused: reused, NodesReparsed: reparsed}, true
}

// spliceDamagedChunk parses newSource[damageStart:damageEnd] in isolation
// and splices its nodes into dest, shifting every location by damageStart
// and every NodeID-valued field by dest's current length. The chunk's own
// synthetic Program wrapper node - always its last node, by construction -
// is discarded; only its top-level statement IDs (remapped) are returned,
// so a later splice against the resulting tree still sees a contiguous,
// increasing-ID arena with no orphaned node breaking that invariant.
func spliceDamagedChunk(dest *types.Tree, newSource []byte, damageStart, damageEnd int) ([]types.NodeID, []types.ParseDiagnostic, int, bool) {
	sub, err := parser.Parse(newSource[damageStart:damageEnd])
	if err != nil || sub == nil || sub.Tree == nil || len(sub.Tree.Nodes) == 0 {
		return nil, nil, 0, false
	}
	if int(sub.Tree.Root) != len(sub.Tree.Nodes)-1 {
		return nil, nil, 0, false
	}
	subRoot := sub.Tree.Node(sub.Tree.Root)

	offset := types.NodeID(len(dest.Nodes))
	body := sub.Tree.Nodes[:len(sub.Tree.Nodes)-1]
	for _, n := range body {
		dest.Nodes = append(dest.Nodes, shiftNode(n, offset, damageStart))
	}

	children := make([]types.NodeID, len(subRoot.Children))
	for i, id := range subRoot.Children {
		children[i] = shiftID(id, offset)
	}

	// Chunk-parse diagnostics are positioned relative to the chunk;
	// rebase them onto the full document.
	diags := make([]types.ParseDiagnostic, len(sub.Errors))
	for i, d := range sub.Errors {
		d.Location.Start += damageStart
		d.Location.End += damageStart
		diags[i] = d
	}
	return children, diags, len(body), true
}

// appendRange clones src.Nodes[lo:hi] (inclusive) into dst, shifting every
// copied node's byte locations by delta and every NodeID-valued field by a
// single offset that relocates the range to dst's current end. It returns
// hi's new ID - the relocated subtree's root.
func appendRange(dst *types.Tree, src *types.Tree, lo, hi types.NodeID, delta int) types.NodeID {
	offset := types.NodeID(len(dst.Nodes)) - lo
	for id := lo; id <= hi; id++ {
		dst.Nodes = append(dst.Nodes, shiftNode(src.Nodes[id], offset, delta))
	}
	return hi + offset
}

// shiftNode returns a copy of n with every byte offset in Location moved
// by delta and every NodeID-valued field moved by offset. Fields that
// aren't meaningful for n.Kind carry whatever zero or stale value they
// already had; shifting them is harmless; nothing reads them without
// first switching on Kind.
func shiftNode(n types.Node, offset types.NodeID, delta int) types.Node {
	n.Location.Start += delta
	n.Location.End += delta
	n.Children = shiftIDs(n.Children, offset)
	n.Params = shiftIDs(n.Params, offset)
	n.Left = shiftID(n.Left, offset)
	n.Right = shiftID(n.Right, offset)
	n.Cond = shiftID(n.Cond, offset)
	n.Then = shiftID(n.Then, offset)
	n.Else = shiftID(n.Else, offset)
	n.Body = shiftID(n.Body, offset)
	n.Object = shiftID(n.Object, offset)
	n.Init = shiftID(n.Init, offset)
	n.Update = shiftID(n.Update, offset)
	n.Finally = shiftID(n.Finally, offset)
	if len(n.Elsifs) > 0 {
		elsifs := make([]types.ElsifClause, len(n.Elsifs))
		for i, e := range n.Elsifs {
			elsifs[i] = types.ElsifClause{Cond: shiftID(e.Cond, offset), Then: shiftID(e.Then, offset)}
		}
		n.Elsifs = elsifs
	}
	if len(n.CatchBlocks) > 0 {
		catches := make([]types.CatchClause, len(n.CatchBlocks))
		for i, c := range n.CatchBlocks {
			catches[i] = types.CatchClause{Variable: c.Variable, Body: shiftID(c.Body, offset)}
		}
		n.CatchBlocks = catches
	}
	return n
}

func shiftID(id types.NodeID, offset types.NodeID) types.NodeID {
	if id == types.InvalidNodeID {
		return types.InvalidNodeID
	}
	return id + offset
}

func shiftIDs(ids []types.NodeID, offset types.NodeID) []types.NodeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]types.NodeID, len(ids))
	for i, id := range ids {
		out[i] = shiftID(id, offset)
	}
	return out
}

func countNodes(tree *types.Tree) int {
	if tree == nil {
		return 0
	}
	return len(tree.Nodes)
}

func fullReparse(newSource []byte, start time.Time) (*types.ParseResult, types.ReuseMetrics) {
	result, err := parser.Parse(newSource)
	metrics := types.ReuseMetrics{
		NodesReused:   0,
		NodesReparsed: countNodes(nonNilTree(result)),
		ElapsedNanos:  time.Since(start).Nanoseconds(),
	}
	if err != nil {
		return &types.ParseResult{Errors: nil}, metrics
	}
	return result, metrics
}

func nonNilTree(r *types.ParseResult) *types.Tree {
	if r == nil {
		return nil
	}
	return r.Tree
}
